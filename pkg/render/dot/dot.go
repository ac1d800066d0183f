package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/launchgraph/pkg/graph"
	"github.com/matzehuels/launchgraph/pkg/topology"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the kind and the full path to node labels.
	Detailed bool
	// Clusters draws containers as nested clusters.
	Clusters bool
}

// ToDOT converts g to Graphviz DOT source.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	if opts.Clusters {
		t := newClusterTree(g)
		t.write(&buf, t.root, 1, opts)
	} else {
		for _, c := range g.Components() {
			writeNode(&buf, c, "  ", opts)
		}
	}

	buf.WriteString("\n")
	for _, e := range g.DAG().Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func writeNode(buf *bytes.Buffer, c *topology.Component, indent string, opts Options) {
	fmt.Fprintf(buf, "%s%q [%s];\n", indent, graph.ID(c), strings.Join(nodeAttrs(c, opts), ", "))
}

func nodeAttrs(c *topology.Component, opts Options) []string {
	lines := []string{c.Factory(), c.Name()}
	caps, isCaps := c.Caps()
	if isCaps {
		lines = []string{caps}
	}
	if opts.Detailed {
		lines = append(lines, "kind: "+c.Kind().String(), "path: "+c.Path())
	}

	attrs := []string{fmt.Sprintf("label=%q", strings.Join(lines, "\n"))}
	if isCaps {
		attrs = append(attrs, "shape=note", "style=filled", "fillcolor=lightyellow")
	}
	return attrs
}

// clusterTree groups graph nodes under the containers that hold them.
type clusterTree struct {
	root     *topology.Component
	children map[*topology.Component][]*topology.Component
	leaves   map[*topology.Component][]*topology.Component
}

func newClusterTree(g *graph.Graph) *clusterTree {
	t := &clusterTree{
		children: make(map[*topology.Component][]*topology.Component),
		leaves:   make(map[*topology.Component][]*topology.Component),
	}
	seen := make(map[*topology.Component]bool)
	for _, c := range g.Components() {
		t.leaves[c.Parent()] = append(t.leaves[c.Parent()], c)
		// Register the container chain so empty intermediate containers
		// still nest.
		for p := c.Parent(); p != nil && !seen[p]; p = p.Parent() {
			seen[p] = true
			t.children[p.Parent()] = append(t.children[p.Parent()], p)
		}
	}
	return t
}

func (t *clusterTree) write(buf *bytes.Buffer, container *topology.Component, depth int, opts Options) {
	indent := strings.Repeat("  ", depth)
	for _, c := range t.leaves[container] {
		writeNode(buf, c, indent, opts)
	}
	for _, sub := range t.children[container] {
		fmt.Fprintf(buf, "%ssubgraph %q {\n", indent, "cluster_"+sub.Path())
		fmt.Fprintf(buf, "%s  label=%q;\n", indent, sub.Factory()+" "+sub.Name())
		fmt.Fprintf(buf, "%s  style=\"rounded,dashed\";\n", indent)
		t.write(buf, sub, depth+1, opts)
		fmt.Fprintf(buf, "%s}\n", indent)
	}
}

// RenderSVG renders DOT source to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	svg, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(svg), nil
}

// RenderPNG renders DOT source to a PNG image.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg tag so the image
// scales with its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
