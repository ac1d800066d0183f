// Package dag provides the simple directed graph that holds the dataflow of
// a flattened topology.
//
// # Overview
//
// Nodes are leaf components keyed by their path. An edge always points from
// a producer to a consumer. The graph is simple: adding an edge that already
// exists is a no-op, so a pair of components linked through several ports
// still contributes one edge.
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode], and edges with
// [DAG.AddEdge]:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "src"})
//	g.AddNode(dag.Node{ID: "sink"})
//	g.AddEdge(dag.Edge{From: "src", To: "sink"})
//
// Query the graph structure with [DAG.Children], [DAG.Parents], [DAG.Sources]
// and related methods. Every query answers in insertion order, which is what
// makes launch-line output deterministic.
//
// # Cycles
//
// Nothing stops a caller from adding edges that close a cycle. Use
// [DAG.Validate] before walking the graph recursively; it reports
// [ErrGraphHasCycle].
//
// # Metadata
//
// Both nodes and the graph itself support arbitrary metadata via [Metadata]
// maps. Metadata maps are never nil after creation - empty maps are
// automatically initialized.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Callers must synchronize
// access if multiple goroutines read or modify the same graph. A graph that
// is no longer modified can be read from any number of goroutines.
package dag
