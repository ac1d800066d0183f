package topology

import (
	"strings"
)

// Kind is the closed classification of a component, resolved once when the
// component is constructed.
type Kind int

const (
	// KindLeaf is a processing unit with ports that takes part in the graph.
	KindLeaf Kind = iota
	// KindContainer groups child components and is transparent to the graph.
	KindContainer
	// KindFilter is a leaf that renders as its capability description.
	KindFilter
)

// String returns the lower-case kind name used in snapshots and registries.
func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindFilter:
		return "filter"
	default:
		return "leaf"
	}
}

// ParseKind converts a kind name back into a Kind.
// The second result is false for unknown names.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(s) {
	case "leaf", "element", "":
		return KindLeaf, true
	case "container", "bin":
		return KindContainer, true
	case "filter", "capsfilter":
		return KindFilter, true
	}
	return KindLeaf, false
}

// Direction is the data-flow direction of a port.
type Direction int

const (
	// Input ports consume data (sink side).
	Input Direction = iota
	// Output ports produce data (source side).
	Output
)

// String returns "input" or "output".
func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// CapsProperty is the property a filter component renders inline.
const CapsProperty = "caps"

// NameProperty is the identity property every component carries.
const NameProperty = "name"

// Caps is a capability description. It renders through CanonicalString.
type Caps string

// CanonicalString returns the caps text.
func (c Caps) CanonicalString() string { return string(c) }

// Property is one configuration key of a component.
type Property struct {
	Name     string
	Writable bool
	Default  any
	Value    any
	// Err is non-nil when the current value could not be read.
	Err error
}

// Port is an attachment point on a component.
//
// Proxy ports come in pairs owned by a container: the external port faces
// the container's siblings and the internal port faces its children. Each
// one's Internal points at the other.
type Port struct {
	name      string
	direction Direction
	owner     *Component
	peer      *Port
	internal  *Port
	proxy     bool
}

// Name returns the port name, unique per direction within its owner.
func (p *Port) Name() string { return p.name }

// Direction returns whether the port is an input or an output.
func (p *Port) Direction() Direction { return p.direction }

// Owner returns the component the port belongs to.
func (p *Port) Owner() *Component { return p.owner }

// Peer returns the port this one is directly linked to, or nil.
func (p *Port) Peer() *Port { return p.peer }

// IsProxy reports whether the port forwards through a container boundary.
func (p *Port) IsProxy() bool { return p.proxy }

// Internal returns the forwarding hop of a proxy port, or nil.
func (p *Port) Internal() *Port { return p.internal }

// String returns "owner.port".
func (p *Port) String() string {
	if p.owner == nil {
		return "." + p.name
	}
	return p.owner.name + "." + p.name
}

// Component is a processing unit in the topology.
// Components are read-only once a Builder has produced them.
type Component struct {
	name       string
	factory    string
	kind       Kind
	inputs     []*Port
	outputs    []*Port
	properties []Property
	children   []*Component
	parent     *Component
	// internals holds the inner halves of proxy ports; they never appear in
	// Inputs or Outputs.
	internals []*Port
}

// Name returns the component's identity.
func (c *Component) Name() string { return c.name }

// Factory returns the component's type name.
func (c *Component) Factory() string { return c.factory }

// Kind returns the classification resolved at construction.
func (c *Component) Kind() Kind { return c.kind }

// Inputs returns the input ports in declaration order.
func (c *Component) Inputs() []*Port { return c.inputs }

// Outputs returns the output ports in declaration order.
func (c *Component) Outputs() []*Port { return c.outputs }

// Properties returns the configuration keys in declaration order.
func (c *Component) Properties() []Property { return c.properties }

// Property returns the named property.
func (c *Component) Property(name string) (Property, bool) {
	for _, p := range c.properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Children returns the contained components of a container.
func (c *Component) Children() []*Component { return c.children }

// Parent returns the enclosing container, or nil for a root.
func (c *Component) Parent() *Component { return c.parent }

// Input returns the named input port.
func (c *Component) Input(name string) *Port { return findPort(c.inputs, name) }

// Output returns the named output port.
func (c *Component) Output(name string) *Port { return findPort(c.outputs, name) }

// Path returns the slash-joined names from the root down to c. It is unique
// even when sibling containers reuse child names.
func (c *Component) Path() string {
	if c.parent == nil {
		return c.name
	}
	return c.parent.Path() + "/" + c.name
}

// Caps returns the capability description of a filter component.
func (c *Component) Caps() (string, bool) {
	p, ok := c.Property(CapsProperty)
	if !ok || p.Err != nil || p.Value == nil {
		return "", false
	}
	switch v := p.Value.(type) {
	case Caps:
		return string(v), true
	case string:
		return v, true
	}
	return "", false
}

// Walk visits c and all descendants depth-first in child order.
func (c *Component) Walk(fn func(*Component)) {
	fn(c)
	for _, child := range c.children {
		child.Walk(fn)
	}
}

func findPort(ports []*Port, name string) *Port {
	for _, p := range ports {
		if p.name == name {
			return p
		}
	}
	return nil
}
