package launch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matzehuels/launchgraph/pkg/errors"
	"github.com/matzehuels/launchgraph/pkg/props"
	"github.com/matzehuels/launchgraph/pkg/topology"
)

// Pipeline is a parsed launch line: the elements it instantiates and the
// links between them.
type Pipeline struct {
	Elements []*Element
	Links    []Link
}

// Element is one instantiated element.
type Element struct {
	Name    string
	Factory string
	// Caps is set for elements written as a bare capability description.
	Caps     string
	Settings []props.Setting
}

// Kind returns KindFilter for caps elements and KindLeaf otherwise.
func (e *Element) Kind() topology.Kind {
	if e.Caps != "" {
		return topology.KindFilter
	}
	return topology.KindLeaf
}

// Setting returns the value of the named setting.
func (e *Element) Setting(key string) (string, bool) {
	for _, s := range e.Settings {
		if s.Key == key {
			return s.Value, true
		}
	}
	return "", false
}

// Link connects two elements by name. Ports are empty when the launcher may
// pick any compatible port.
type Link struct {
	From     string
	FromPort string
	To       string
	ToPort   string
}

// Element returns the element with the given name.
func (p *Pipeline) Element(name string) (*Element, bool) {
	for _, e := range p.Elements {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

var (
	settingPattern   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*)=(.*)$`)
	referencePattern = regexp.MustCompile(`^([A-Za-z0-9_-]+)\.([A-Za-z0-9_%-]*)$`)
)

// Parse reads a launch line the way the launcher would, without creating
// anything. When command is not empty and the text starts with its words,
// they are skipped.
func Parse(text, command string) (*Pipeline, error) {
	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	if cmd := strings.Fields(command); len(cmd) > 0 && len(tokens) >= len(cmd) {
		match := true
		for i, w := range cmd {
			if tokens[i] != w {
				match = false
				break
			}
		}
		if match {
			tokens = tokens[len(cmd):]
		}
	}

	p := &parser{counters: make(map[string]int)}
	for _, tok := range tokens {
		if err := p.token(tok); err != nil {
			return nil, err
		}
	}
	if p.pendingLink {
		return nil, errors.New(errors.ErrCodeInvalidLaunch, "launch line ends with a dangling link")
	}
	return p.finish()
}

// endpoint is either an element created by the line or a by-name reference.
type endpoint struct {
	elem *Element
	name string
	port string
}

func (e endpoint) resolve() string {
	if e.elem != nil {
		return e.elem.Name
	}
	return e.name
}

type deferredLink struct {
	from, to endpoint
}

type parser struct {
	elements    []*Element
	links       []deferredLink
	cur         *Element
	prev        *endpoint
	pendingLink bool
	counters    map[string]int
}

func (p *parser) token(tok string) error {
	if tok == "!" {
		if p.prev == nil {
			return errors.New(errors.ErrCodeInvalidLaunch, "link without a source element")
		}
		if p.pendingLink {
			return errors.New(errors.ErrCodeInvalidLaunch, "two links in a row")
		}
		p.pendingLink = true
		return nil
	}

	if m := settingPattern.FindStringSubmatch(tok); m != nil {
		if p.cur == nil {
			return errors.New(errors.ErrCodeInvalidLaunch, "setting %q has no element", tok)
		}
		value := props.Unquote(m[2])
		if m[1] == topology.NameProperty {
			p.cur.Name = value
		}
		p.cur.Settings = append(p.cur.Settings, props.Setting{Key: m[1], Value: value})
		return nil
	}

	if m := referencePattern.FindStringSubmatch(tok); m != nil {
		ref := endpoint{name: m[1], port: m[2]}
		if p.pendingLink {
			p.link(ref)
		}
		p.prev = &ref
		p.cur = nil
		return nil
	}

	unquoted := props.Unquote(tok)
	e := &Element{Factory: unquoted}
	if strings.Contains(unquoted, "/") {
		e = &Element{
			Factory:  "capsfilter",
			Caps:     unquoted,
			Settings: []props.Setting{{Key: topology.CapsProperty, Value: unquoted}},
		}
	}
	p.elements = append(p.elements, e)
	if p.pendingLink {
		p.link(endpoint{elem: e})
	}
	p.prev = &endpoint{elem: e}
	p.cur = e
	return nil
}

func (p *parser) link(to endpoint) {
	p.links = append(p.links, deferredLink{from: *p.prev, to: to})
	p.pendingLink = false
}

func (p *parser) finish() (*Pipeline, error) {
	out := &Pipeline{Elements: p.elements}
	names := make(map[string]bool, len(p.elements))
	for _, e := range p.elements {
		if e.Name != "" {
			if names[e.Name] {
				return nil, errors.New(errors.ErrCodeInvalidLaunch, "duplicate element name %q", e.Name)
			}
			names[e.Name] = true
		}
	}
	for _, e := range p.elements {
		if e.Name != "" {
			continue
		}
		for {
			e.Name = fmt.Sprintf("%s%d", e.Factory, p.counters[e.Factory])
			p.counters[e.Factory]++
			if !names[e.Name] {
				break
			}
		}
		names[e.Name] = true
	}

	for _, l := range p.links {
		from, to := l.from.resolve(), l.to.resolve()
		for _, n := range []string{from, to} {
			if !names[n] {
				return nil, errors.New(errors.ErrCodeInvalidLaunch, "reference to unknown element %q", n)
			}
		}
		out.Links = append(out.Links, Link{From: from, FromPort: l.from.port, To: to, ToPort: l.to.port})
	}
	return out, nil
}

// tokenize splits a launch line on whitespace outside quotes. Line
// continuations are dropped and quotes are kept on the token.
func tokenize(text string) ([]string, error) {
	var tokens []string
	var cur strings.Builder
	var quote rune
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
			cur.WriteRune(r)
		case r == '\\' && (i+1 == len(runes) || runes[i+1] == '\n' || runes[i+1] == '\r'):
			flush()
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if quote != 0 {
		return nil, errors.New(errors.ErrCodeInvalidLaunch, "unterminated %c quote", quote)
	}
	flush()
	return tokens, nil
}
