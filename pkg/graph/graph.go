package graph

import (
	"fmt"

	"github.com/matzehuels/launchgraph/pkg/connect"
	"github.com/matzehuels/launchgraph/pkg/dag"
	"github.com/matzehuels/launchgraph/pkg/flatten"
	"github.com/matzehuels/launchgraph/pkg/topology"
)

// Graph is the dataflow graph of a flattened topology. Node IDs are
// component paths; edges point from producer to consumer.
type Graph struct {
	dag        *dag.DAG
	components map[string]*topology.Component
}

// Build flattens roots and checks every ordered pair of distinct leaves for
// a link. Every leaf becomes a node, so a leaf with no links is a source.
// A leaf listed twice appears once.
func Build(roots ...*topology.Component) (*Graph, error) {
	g := &Graph{
		dag:        dag.New(nil),
		components: make(map[string]*topology.Component),
	}

	var leaves []*topology.Component
	for _, c := range flatten.Flatten(roots...) {
		id := ID(c)
		if _, seen := g.components[id]; seen {
			continue
		}
		meta := dag.Metadata{"factory": c.Factory(), "kind": c.Kind().String()}
		if err := g.dag.AddNode(dag.Node{ID: id, Meta: meta}); err != nil {
			return nil, fmt.Errorf("add node %s: %w", id, err)
		}
		g.components[id] = c
		leaves = append(leaves, c)
	}

	for _, a := range leaves {
		for _, b := range leaves {
			if a == b {
				continue
			}
			var from, to string
			switch connect.Direction(a, b) {
			case connect.AtoB:
				from, to = ID(a), ID(b)
			case connect.BtoA:
				from, to = ID(b), ID(a)
			default:
				continue
			}
			if err := g.dag.AddEdge(dag.Edge{From: from, To: to}); err != nil {
				return nil, fmt.Errorf("add edge %s→%s: %w", from, to, err)
			}
		}
	}
	return g, nil
}

// ID returns the node ID of a component.
func ID(c *topology.Component) string { return c.Path() }

// DAG returns the underlying graph.
func (g *Graph) DAG() *dag.DAG { return g.dag }

// Component returns the component behind a node ID.
func (g *Graph) Component(id string) (*topology.Component, bool) {
	c, ok := g.components[id]
	return c, ok
}

// Components returns the leaves in node order.
func (g *Graph) Components() []*topology.Component {
	nodes := g.dag.Nodes()
	out := make([]*topology.Component, len(nodes))
	for i, n := range nodes {
		out[i] = g.components[n.ID]
	}
	return out
}

// Successors returns the consumers fed by id.
func (g *Graph) Successors(id string) []string { return g.dag.Children(id) }

// Predecessors returns the producers feeding id.
func (g *Graph) Predecessors(id string) []string { return g.dag.Parents(id) }

// Sources returns the IDs of nodes without producers, in node order.
func (g *Graph) Sources() []string { return dag.NodeIDs(g.dag.Sources()) }

// Sinks returns the IDs of nodes without consumers, in node order.
func (g *Graph) Sinks() []string { return dag.NodeIDs(g.dag.Sinks()) }

// Len returns the number of nodes.
func (g *Graph) Len() int { return g.dag.NodeCount() }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return g.dag.EdgeCount() }

// Validate reports dag.ErrGraphHasCycle when the dataflow loops.
func (g *Graph) Validate() error { return g.dag.Validate() }
