// Package graph builds the dataflow graph of a topology and serializes it.
//
// # Building
//
// [Build] flattens the component tree (package flatten), adds every leaf as
// a node keyed by its path, then checks every ordered pair of distinct leaves
// with connect.Direction. Links that cross container boundaries through proxy
// ports become plain producer→consumer edges; containers never appear.
//
// The scan is O(n²·p²) in leaves and ports. That is fine for the topologies a
// person writes by hand or a host snapshots live; nobody runs it on
// thousand-element graphs.
//
// Edges are deduplicated, so two components linked through several port
// pairs still share a single edge. Cycles are not rejected here; call
// [Graph.Validate] before walking the graph recursively.
//
// # Serialization
//
// Graphs export to a simple node-link JSON format:
//
//	{
//	  "nodes": [{"id": "pipeline0/src", "name": "src", "factory": "videotestsrc", "kind": "leaf"}],
//	  "edges": [{"from": "pipeline0/src", "to": "pipeline0/sink"}]
//	}
//
// Use [Export], [Marshal], [WriteJSON] or [WriteFile].
//
// # Concurrency
//
// A built Graph is read-only and safe for concurrent reads.
package graph
