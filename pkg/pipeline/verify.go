package pipeline

import (
	"slices"

	"github.com/matzehuels/launchgraph/pkg/errors"
	"github.com/matzehuels/launchgraph/pkg/graph"
	"github.com/matzehuels/launchgraph/pkg/launch"
	"github.com/matzehuels/launchgraph/pkg/props"
	"github.com/matzehuels/launchgraph/pkg/topology"
)

// Verify parses line the way the launcher would and checks it against g.
// The n-th element created is matched with line.Elements[n]; it must have
// that node's factory (or caps) and the settings ex extracts for it, and the
// links must join exactly the node pairs of g.
func Verify(g *graph.Graph, line launch.Line, ex props.Extractor, opts launch.Options) error {
	p, err := launch.Parse(line.Text, opts.Command)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "serialized line does not parse")
	}
	if len(p.Elements) != g.Len() || len(line.Elements) != g.Len() {
		return errors.New(errors.ErrCodeInternal, "serialized line has %d elements, graph has %d nodes", len(p.Elements), g.Len())
	}

	ids := make(map[string]string, len(p.Elements))
	for i, e := range p.Elements {
		id := line.Elements[i]
		c, ok := g.Component(id)
		if !ok {
			return errors.New(errors.ErrCodeInternal, "element %q maps to unknown node %q", e.Name, id)
		}
		if err := verifyElement(e, c, ex, opts.Policy); err != nil {
			return err
		}
		ids[e.Name] = id
	}

	pairs := make(map[[2]string]struct{})
	for _, l := range p.Links {
		from, to := ids[l.From], ids[l.To]
		if !slices.Contains(g.Successors(from), to) {
			return errors.New(errors.ErrCodeInternal, "serialized line links %s to %s, graph has no such edge", from, to)
		}
		pairs[[2]string{from, to}] = struct{}{}
	}
	if len(pairs) != g.EdgeCount() {
		return errors.New(errors.ErrCodeInternal, "serialized line links %d element pairs, graph has %d edges", len(pairs), g.EdgeCount())
	}
	return nil
}

func verifyElement(e *launch.Element, c *topology.Component, ex props.Extractor, policy props.Policy) error {
	if c.Kind() == topology.KindFilter {
		if caps, ok := c.Caps(); ok {
			if e.Caps != props.Unquote(props.Quote(caps)) {
				return errors.New(errors.ErrCodeInternal, "element %q has caps %q, %s has %q", e.Name, e.Caps, c.Path(), caps)
			}
			return nil
		}
	}
	if e.Factory != c.Factory() {
		return errors.New(errors.ErrCodeInternal, "element %q is a %s, %s is a %s", e.Name, e.Factory, c.Path(), c.Factory())
	}

	want := ex.Extract(c, policy)
	same := slices.EqualFunc(e.Settings, want, func(got, want props.Setting) bool {
		return got.Key == want.Key && got.Value == props.Unquote(props.Quote(want.Value))
	})
	if !same {
		return errors.New(errors.ErrCodeInternal, "element %q has settings %v, %s has %v", e.Name, e.Settings, c.Path(), want)
	}
	return nil
}
