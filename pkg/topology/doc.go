// Package topology models a live media-processing topology: components
// connected by directional ports, grouped by containers that forward
// connections through pairs of proxy ports.
//
// # Overview
//
// A [Component] is either a leaf (it takes part in the dataflow graph), a
// filter (a leaf rendered as its capability description) or a container
// (transparent to the graph; only its children count). The classification is
// a closed [Kind] resolved once, when the component is added through a
// [Builder], from a [Registry] lookup table. Nothing downstream inspects
// factory names to decide what a component is.
//
// Every [Port] has at most one peer. A container exposes a child's port
// through a proxy pair: the external half is listed among the container's
// ports and faces siblings, the internal half is linked to the child's port.
// Connectivity across any number of container boundaries is resolved by
// package connect.
//
// # Snapshots
//
// Hosts hand topologies to launchgraph as snapshots in JSON, YAML or TOML:
//
//	name: pipeline0
//	factory: pipeline
//	children:
//	  - {name: src, factory: videotestsrc, outputs: [src]}
//	  - {name: sink, factory: autovideosink, inputs: [sink]}
//	links:
//	  - {from: src.src, to: sink.sink}
//
// Use [ReadFile] or [Decode]. Component names must be unique across the
// snapshot because links and ghost targets refer to ports by "name.port".
//
// # Concurrency
//
// Components and ports are immutable once built and can be read from any
// number of goroutines. [Builder] is not safe for concurrent use.
package topology
