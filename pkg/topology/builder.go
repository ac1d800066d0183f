package topology

import (
	"slices"
	"strings"

	"github.com/matzehuels/launchgraph/pkg/errors"
)

// Spec describes a component to add through a Builder.
type Spec struct {
	Name       string
	Factory    string
	Inputs     []string
	Outputs    []string
	Properties []Property
	// Fallback is the kind used when the registry does not know Factory.
	// Registry classification always wins.
	Fallback Kind
}

// Builder constructs a read-only topology. It resolves every component's
// Kind once, from the registry, at the moment the component is added.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	registry *Registry
	byName   map[string]*Component
	roots    []*Component
}

// NewBuilder creates a builder that classifies components with r.
// A nil registry means DefaultRegistry.
func NewBuilder(r *Registry) *Builder {
	if r == nil {
		r = DefaultRegistry()
	}
	return &Builder{registry: r, byName: make(map[string]*Component)}
}

// Roots returns the top-level components in insertion order.
func (b *Builder) Roots() []*Component { return b.roots }

// Lookup returns the component with the given name.
func (b *Builder) Lookup(name string) (*Component, bool) {
	c, ok := b.byName[name]
	return c, ok
}

// Add creates a component under parent (nil for a root).
// Names must be unique across the whole topology.
func (b *Builder) Add(parent *Component, s Spec) (*Component, error) {
	if err := errors.ValidateComponentName(s.Name); err != nil {
		return nil, err
	}
	if err := errors.ValidateFactoryName(s.Factory); err != nil {
		return nil, err
	}
	if _, exists := b.byName[s.Name]; exists {
		return nil, errors.New(errors.ErrCodeInvalidTopology, "duplicate component name %q", s.Name)
	}
	if parent != nil && parent.kind != KindContainer {
		return nil, errors.New(errors.ErrCodeInvalidTopology, "%q is not a container and cannot hold %q", parent.name, s.Name)
	}

	c := &Component{
		name:    s.Name,
		factory: s.Factory,
		kind:    b.classify(s),
		parent:  parent,
	}

	for _, name := range s.Inputs {
		if err := c.addPort(name, Input); err != nil {
			return nil, err
		}
	}
	for _, name := range s.Outputs {
		if err := c.addPort(name, Output); err != nil {
			return nil, err
		}
	}

	c.properties = withName(s.Name, s.Properties)

	b.byName[s.Name] = c
	if parent == nil {
		b.roots = append(b.roots, c)
	} else {
		parent.children = append(parent.children, c)
	}
	return c, nil
}

// MustAdd is Add for statically known topologies; it panics on error.
func (b *Builder) MustAdd(parent *Component, s Spec) *Component {
	c, err := b.Add(parent, s)
	if err != nil {
		panic(err)
	}
	return c
}

func (b *Builder) classify(s Spec) Kind {
	if k, ok := b.registry.Classify(s.Factory); ok {
		return k
	}
	return s.Fallback
}

// withName prepends the identity property unless the caller supplied one.
func withName(name string, props []Property) []Property {
	if slices.ContainsFunc(props, func(p Property) bool { return p.Name == NameProperty }) {
		return slices.Clone(props)
	}
	out := make([]Property, 0, len(props)+1)
	out = append(out, Property{Name: NameProperty, Writable: true, Value: name})
	return append(out, props...)
}

func (c *Component) addPort(name string, dir Direction) error {
	if err := errors.ValidatePortName(name); err != nil {
		return err
	}
	ports := &c.inputs
	if dir == Output {
		ports = &c.outputs
	}
	if findPort(*ports, name) != nil {
		return errors.New(errors.ErrCodeInvalidTopology, "duplicate %s port %q on %q", dir, name, c.name)
	}
	*ports = append(*ports, &Port{name: name, direction: dir, owner: c})
	return nil
}

// Link connects an output port to an input port. Both must be free.
func (b *Builder) Link(src, sink *Port) error {
	if src == nil || sink == nil {
		return errors.New(errors.ErrCodeInvalidTopology, "cannot link a missing port")
	}
	if src.direction != Output {
		return errors.New(errors.ErrCodeInvalidTopology, "link source %s is not an output", src)
	}
	if sink.direction != Input {
		return errors.New(errors.ErrCodeInvalidTopology, "link sink %s is not an input", sink)
	}
	if src.peer != nil {
		return errors.New(errors.ErrCodeInvalidTopology, "%s is already linked to %s", src, src.peer)
	}
	if sink.peer != nil {
		return errors.New(errors.ErrCodeInvalidTopology, "%s is already linked to %s", sink, sink.peer)
	}
	src.peer = sink
	sink.peer = src
	return nil
}

// Ghost exposes target, a port of one of container's direct children, as a
// proxy port of container with the given name. The returned port is the
// external half; its internal half is linked to target.
func (b *Builder) Ghost(container *Component, name string, target *Port) (*Port, error) {
	if container == nil || container.kind != KindContainer {
		return nil, errors.New(errors.ErrCodeInvalidTopology, "ghost port %q needs a container", name)
	}
	if target == nil {
		return nil, errors.New(errors.ErrCodeInvalidTopology, "ghost port %s.%s has no target", container.name, name)
	}
	if target.owner == nil || target.owner.parent != container {
		return nil, errors.New(errors.ErrCodeInvalidTopology, "ghost target %s is not a child port of %q", target, container.name)
	}
	if target.peer != nil {
		return nil, errors.New(errors.ErrCodeInvalidTopology, "ghost target %s is already linked", target)
	}
	if err := container.addPort(name, target.direction); err != nil {
		return nil, err
	}

	external := container.Input(name)
	inner := Input
	if target.direction == Output {
		external = container.Output(name)
	} else {
		inner = Output
	}
	external.proxy = true

	internal := &Port{name: name, direction: inner, owner: container, proxy: true}
	external.internal = internal
	internal.internal = external
	container.internals = append(container.internals, internal)

	internal.peer = target
	target.peer = internal
	return external, nil
}

// Port resolves a "component.port" reference. Output ports are preferred
// when a component has an input and an output with the same name.
func (b *Builder) Port(ref string) (*Port, error) {
	name, port, ok := strings.Cut(ref, ".")
	if !ok || name == "" || port == "" {
		return nil, errors.New(errors.ErrCodeInvalidTopology, "port reference %q must look like component.port", ref)
	}
	c, ok := b.byName[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidTopology, "unknown component %q in %q", name, ref)
	}
	if p := c.Output(port); p != nil {
		return p, nil
	}
	if p := c.Input(port); p != nil {
		return p, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidTopology, "unknown port %q on %q", port, name)
}

// LinkRefs links two "component.port" references.
func (b *Builder) LinkRefs(from, to string) error {
	src, err := b.Port(from)
	if err != nil {
		return err
	}
	sink, err := b.resolveSink(to)
	if err != nil {
		return err
	}
	return b.Link(src, sink)
}

func (b *Builder) resolveSink(ref string) (*Port, error) {
	p, err := b.Port(ref)
	if err != nil {
		return nil, err
	}
	if p.direction == Input {
		return p, nil
	}
	if in := p.owner.Input(p.name); in != nil {
		return in, nil
	}
	return p, nil
}
