package launch

import (
	"strings"

	"github.com/matzehuels/launchgraph/pkg/graph"
	"github.com/matzehuels/launchgraph/pkg/props"
	"github.com/matzehuels/launchgraph/pkg/topology"
)

const (
	// DefaultCommand is the launcher invocation written as the first line.
	DefaultCommand = "gst-launch-1.0 -ev"
	// DefaultElementIndent is repeated once per branch level.
	DefaultElementIndent = "  "
	// DefaultPropertyIndent is added below an element line for its settings.
	DefaultPropertyIndent = "    "
)

// continuation ends every line but the last.
const continuation = " \\"

// Options control the rendering of a launch line.
type Options struct {
	// Command is written as the first line. Empty omits the line.
	Command string
	// ElementIndent is repeated once per level in front of every line.
	ElementIndent string
	// PropertyIndent is appended to the element indent for setting lines.
	PropertyIndent string
	// Level is the level sources start at.
	Level int
	// Policy lists configuration keys that are never emitted.
	Policy props.Policy
}

// DefaultOptions returns the options the command line uses by default.
func DefaultOptions() Options {
	return Options{
		Command:        DefaultCommand,
		ElementIndent:  DefaultElementIndent,
		PropertyIndent: DefaultPropertyIndent,
	}
}

// Line is a rendered launch line together with the graph node behind each
// element it instantiates.
type Line struct {
	Text string
	// Elements holds node IDs in the order their definitions appear in
	// Text, which is the order a launcher creates the elements in.
	Elements []string
}

// Serialize renders g as a launch line.
//
// Every source starts a statement. A node with one consumer continues the
// statement on the same level; a node with several consumers is named once
// per branch with a source reference and each branch is indented one level
// deeper. A node with several producers is deferred: every producer but the
// last emits a back-reference to the next free input port, and the last one
// emits the full definition at the shallowest level any producer reached,
// followed by the node's consumers.
//
// Serialize does not detect cycles. Call g.Validate first for untrusted
// input.
func Serialize(g *graph.Graph, ex props.Extractor, opts Options) string {
	return Render(g, ex, opts).Text
}

// Render is Serialize that also reports the definition order.
func Render(g *graph.Graph, ex props.Extractor, opts Options) Line {
	s := &serializer{
		g:      g,
		ex:     ex,
		opts:   opts,
		ledger: NewLedger(),
	}
	if opts.Command != "" {
		s.lines = append(s.lines, opts.Command+continuation)
	}
	for _, id := range g.Sources() {
		s.node(id, opts.Level, false)
	}
	return Line{
		Text:     strings.TrimRight(strings.Join(s.lines, "\n"), " \\"),
		Elements: s.order,
	}
}

type serializer struct {
	g      *graph.Graph
	ex     props.Extractor
	opts   Options
	ledger *Ledger
	lines  []string
	order  []string
}

func (s *serializer) node(id string, level int, preLink bool) {
	c, _ := s.g.Component(id)

	preds := len(s.g.Predecessors(id))
	if preds > 1 {
		arrivals := s.ledger.Arrive(id, level)
		if arrivals < preds {
			s.sinkReference(c, level, arrivals-1)
			return
		}
		// The last producer links straight into the definition.
		level = s.ledger.MinLevel(id)
	}

	s.order = append(s.order, id)
	s.element(c, level, preLink)

	succs := s.g.Successors(id)
	switch {
	case len(succs) > 1:
		for _, succ := range succs {
			s.sourceReference(c, level)
			s.node(succ, level+1, true)
		}
	case len(succs) == 1:
		s.node(succs[0], level, true)
	}
}

func (s *serializer) indent(level int) string {
	if level <= 0 {
		return ""
	}
	return strings.Repeat(s.opts.ElementIndent, level)
}

func (s *serializer) element(c *topology.Component, level int, preLink bool) {
	indent := s.indent(level)
	link := ""
	if preLink {
		link = "! "
	}

	if c.Kind() == topology.KindFilter {
		if caps, ok := c.Caps(); ok {
			s.lines = append(s.lines, indent+link+props.Quote(caps)+continuation)
			return
		}
	}

	s.lines = append(s.lines, indent+link+c.Factory()+continuation)
	pindent := indent + s.opts.PropertyIndent
	for _, st := range s.ex.Extract(c, s.opts.Policy) {
		s.lines = append(s.lines, pindent+st.Key+"="+props.Quote(st.Value)+continuation)
	}
}

func (s *serializer) sourceReference(c *topology.Component, level int) {
	s.lines = append(s.lines, s.indent(level)+c.Name()+"."+continuation)
}

// sinkReference names the idx-th input port of c. When c declares fewer
// ports the reference leaves the port for the launcher to pick.
func (s *serializer) sinkReference(c *topology.Component, level, idx int) {
	port := ""
	if inputs := c.Inputs(); idx >= 0 && idx < len(inputs) {
		port = inputs[idx].Name()
	}
	s.lines = append(s.lines, s.indent(level)+"! "+c.Name()+"."+port+continuation)
}
