// Package dot renders a built graph as a Graphviz diagram.
//
// The launch line hides how a topology is nested; the diagram keeps it.
// With [Options.Clusters] every container becomes a cluster around the
// leaves it holds, so a node reached through several levels of proxy ports
// still shows up inside the containers it lives in.
//
//	src := dot.ToDOT(g, dot.Options{Clusters: true})
//	svg, err := dot.RenderSVG(ctx, src)
//
// Capability filters are drawn as notes labelled with their caps.
//
// # Dependencies
//
// SVG and PNG output use [github.com/goccy/go-graphviz], which embeds
// Graphviz as WebAssembly, so no system installation is needed.
package dot
