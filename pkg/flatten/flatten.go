// Package flatten reduces a component tree to the ordered list of its leaf
// components.
package flatten

import "github.com/matzehuels/launchgraph/pkg/topology"

// Flatten returns the leaves and filters reachable from roots in depth-first
// child order. Containers are replaced by their contents; a container with
// no children is kept as it is. Duplicates in roots are preserved.
func Flatten(roots ...*topology.Component) []*topology.Component {
	var out []*topology.Component
	for _, c := range roots {
		out = appendLeaves(out, c)
	}
	return out
}

func appendLeaves(out []*topology.Component, c *topology.Component) []*topology.Component {
	if c == nil {
		return out
	}
	if c.Kind() != topology.KindContainer || len(c.Children()) == 0 {
		return append(out, c)
	}
	for _, child := range c.Children() {
		out = appendLeaves(out, child)
	}
	return out
}
