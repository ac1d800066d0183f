package dag

import (
	"errors"
	"slices"
	"testing"
)

func TestAddNode(t *testing.T) {
	g := New(nil)
	if err := g.AddNode(Node{ID: ""}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("empty ID: got %v, want %v", err, ErrInvalidNodeID)
	}
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("duplicate: got %v, want %v", err, ErrDuplicateNodeID)
	}
	n, ok := g.Node("a")
	if !ok || n.Meta == nil {
		t.Errorf("Node(a) = %v, %v; want node with initialized meta", n, ok)
	}
}

func TestAddEdge(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})

	tests := []struct {
		name string
		edge Edge
		want error
	}{
		{"unknown source", Edge{From: "x", To: "b"}, ErrUnknownSourceNode},
		{"unknown target", Edge{From: "a", To: "x"}, ErrUnknownTargetNode},
		{"self loop", Edge{From: "a", To: "a"}, ErrSelfLoop},
		{"valid", Edge{From: "a", To: "b"}, nil},
		{"duplicate", Edge{From: "a", To: "b"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.AddEdge(tt.edge); !errors.Is(err, tt.want) {
				t.Errorf("AddEdge(%v) = %v, want %v", tt.edge, err, tt.want)
			}
		})
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
	if !g.HasEdge("a", "b") || g.HasEdge("b", "a") {
		t.Error("HasEdge does not match the inserted edge")
	}
}

func TestRemoveEdge(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})
	_ = g.AddEdge(Edge{From: "a", To: "b"})
	g.RemoveEdge("a", "b")
	g.RemoveEdge("a", "missing")

	if g.EdgeCount() != 0 || len(g.Children("a")) != 0 || len(g.Parents("b")) != 0 {
		t.Errorf("edge a->b still present: edges=%v", g.Edges())
	}
}

func TestInsertionOrder(t *testing.T) {
	g := New(nil)
	ids := []string{"z", "m", "a", "q"}
	for _, id := range ids {
		_ = g.AddNode(Node{ID: id})
	}
	_ = g.AddEdge(Edge{From: "z", To: "q"})
	_ = g.AddEdge(Edge{From: "z", To: "a"})
	_ = g.AddEdge(Edge{From: "m", To: "a"})

	if got := NodeIDs(g.Nodes()); !slices.Equal(got, ids) {
		t.Errorf("Nodes = %v, want %v", got, ids)
	}
	if got := g.Children("z"); !slices.Equal(got, []string{"q", "a"}) {
		t.Errorf("Children(z) = %v, want [q a]", got)
	}
	if got := g.Parents("a"); !slices.Equal(got, []string{"z", "m"}) {
		t.Errorf("Parents(a) = %v, want [z m]", got)
	}
	if got := NodeIDs(g.Sources()); !slices.Equal(got, []string{"z", "m"}) {
		t.Errorf("Sources = %v, want [z m]", got)
	}
	if got := NodeIDs(g.Sinks()); !slices.Equal(got, []string{"a", "q"}) {
		t.Errorf("Sinks = %v, want [a q]", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]string
		want  error
		back  []string
	}{
		{"empty", nil, nil, nil},
		{"chain", [][2]string{{"a", "b"}, {"b", "c"}}, nil, nil},
		{"diamond", [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}}, nil, nil},
		{"two cycle", [][2]string{{"a", "b"}, {"b", "a"}}, ErrGraphHasCycle, []string{"b->a"}},
		{"long cycle", [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "b"}}, ErrGraphHasCycle, []string{"d->b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(nil)
			for _, id := range []string{"a", "b", "c", "d"} {
				_ = g.AddNode(Node{ID: id})
			}
			for _, e := range tt.edges {
				if err := g.AddEdge(Edge{From: e[0], To: e[1]}); err != nil {
					t.Fatalf("AddEdge(%v): %v", e, err)
				}
			}
			if err := g.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
			var back []string
			for _, e := range g.BackEdges() {
				back = append(back, e.From+"->"+e.To)
			}
			if !slices.Equal(back, tt.back) {
				t.Errorf("BackEdges() = %v, want %v", back, tt.back)
			}
		})
	}
}
