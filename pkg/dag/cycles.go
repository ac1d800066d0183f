package dag

// BackEdges returns the edges that close a cycle, found by a depth-first
// walk in insertion order. Removing them would leave the graph acyclic. An
// acyclic graph yields nil.
func (d *DAG) BackEdges() []Edge {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var back []Edge

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				back = append(back, Edge{From: id, To: child})
			}
		}
		color[id] = black
	}

	// Sources first so the reported edge is the one furthest downstream.
	for _, n := range d.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, id := range d.order {
		if color[id] == white {
			dfs(id)
		}
	}
	return back
}
