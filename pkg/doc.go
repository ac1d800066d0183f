// Package pkg provides the libraries behind launchgraph.
//
// # Overview
//
// launchgraph turns a snapshot of a live media-processing topology into the
// textual launch notation understood by gst-launch, so a running pipeline
// can be reproduced from a shell. The pkg directory is organized into three
// areas:
//
//  1. Model: [topology], [connect], [flatten], [dag] and [graph]
//  2. Serialization: [props] and [launch]
//  3. Plumbing: [pipeline], [cache], [store], [observability] and [errors]
//
// # Architecture
//
// The typical data flow:
//
//	Snapshot (JSON, YAML or TOML)
//	         ↓
//	    [topology] package (decode and classify components)
//	         ↓
//	    [flatten] + [connect] packages (leaf components, resolved links)
//	         ↓
//	    [graph] package (producer to consumer dataflow graph)
//	         ↓
//	    [launch] package (launch line)
//
// # Quick Start
//
//	top, _ := topology.Decode(f, topology.FormatYAML, nil)
//	g, _ := graph.Build(top.Roots...)
//	fmt.Println(launch.Serialize(g, props.Extractor{}, launch.DefaultOptions()))
//
// Most callers go through [pipeline.Runner] instead, which adds caching,
// cycle detection and the property policy.
//
// # Main Packages
//
// [topology] - Components, ports, containers and the factory registry that
// classifies them. Snapshots decode from JSON, YAML and TOML.
//
// [connect] - Resolves the component that really produces for or consumes
// from a port, following proxy ports through container boundaries.
//
// [flatten] - Lists the leaf components of a tree in depth-first order.
//
// [dag] - Simple directed graph with cycle detection.
//
// [graph] - Builds the dataflow graph and exports it as node-link JSON.
//
// [props] - Picks the configuration keys worth writing and canonicalizes
// their values.
//
// [launch] - Renders and parses launch lines.
//
// [render/dot] - Graphviz DOT, SVG and PNG drawings of the dataflow graph.
//
// [pipeline] - Decode, build and serialize in one call. Shared by the CLI
// and the HTTP server.
//
// [cache] - File, Redis and no-op caches for serialized results.
//
// [store] - Memory, file and MongoDB stores for submitted snapshots.
//
// [observability] - Hooks for pipeline, cache and HTTP events.
//
// [errors] - Coded errors shared by every package.
//
// # Testing
//
//	go test ./...                        # All tests
//	go test ./pkg/launch/...             # Specific package
//	go test -run Example ./pkg/...       # Examples only
//	LAUNCHGRAPH_TEST_MONGO_URI=mongodb://localhost:27017 go test ./pkg/store/...
//
// [topology]: https://pkg.go.dev/github.com/matzehuels/launchgraph/pkg/topology
// [connect]: https://pkg.go.dev/github.com/matzehuels/launchgraph/pkg/connect
// [flatten]: https://pkg.go.dev/github.com/matzehuels/launchgraph/pkg/flatten
// [dag]: https://pkg.go.dev/github.com/matzehuels/launchgraph/pkg/dag
// [graph]: https://pkg.go.dev/github.com/matzehuels/launchgraph/pkg/graph
// [props]: https://pkg.go.dev/github.com/matzehuels/launchgraph/pkg/props
// [launch]: https://pkg.go.dev/github.com/matzehuels/launchgraph/pkg/launch
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/launchgraph/pkg/render/dot
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/launchgraph/pkg/pipeline
// [pipeline.Runner]: https://pkg.go.dev/github.com/matzehuels/launchgraph/pkg/pipeline#Runner
// [cache]: https://pkg.go.dev/github.com/matzehuels/launchgraph/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/launchgraph/pkg/store
// [observability]: https://pkg.go.dev/github.com/matzehuels/launchgraph/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/launchgraph/pkg/errors
package pkg
