package topology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/launchgraph/pkg/errors"
)

// Format identifies a snapshot encoding.
type Format string

// Supported snapshot encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath infers the encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer snapshot format from %q (want .json, .yaml, .yml or .toml)", path)
}

// ComponentSpec is the snapshot form of a component.
type ComponentSpec struct {
	Name       string          `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Factory    string          `json:"factory,omitempty" yaml:"factory,omitempty" toml:"factory,omitempty"`
	Kind       string          `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	Inputs     []string        `json:"inputs,omitempty" yaml:"inputs,omitempty" toml:"inputs,omitempty"`
	Outputs    []string        `json:"outputs,omitempty" yaml:"outputs,omitempty" toml:"outputs,omitempty"`
	Properties []PropertySpec  `json:"properties,omitempty" yaml:"properties,omitempty" toml:"properties,omitempty"`
	Children   []ComponentSpec `json:"children,omitempty" yaml:"children,omitempty" toml:"children,omitempty"`
	Ghosts     []GhostSpec     `json:"ghosts,omitempty" yaml:"ghosts,omitempty" toml:"ghosts,omitempty"`
	Links      []LinkSpec      `json:"links,omitempty" yaml:"links,omitempty" toml:"links,omitempty"`
}

// PropertySpec is the snapshot form of a property.
type PropertySpec struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
	Default  any    `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
	Writable *bool  `json:"writable,omitempty" yaml:"writable,omitempty" toml:"writable,omitempty"`
	// Error records a value that could not be read when the snapshot was taken.
	Error string `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
}

// GhostSpec exposes a child port through its container.
type GhostSpec struct {
	Name   string `json:"name" yaml:"name" toml:"name"`
	Target string `json:"target" yaml:"target" toml:"target"`
}

// LinkSpec connects two "component.port" references.
type LinkSpec struct {
	From string `json:"from" yaml:"from" toml:"from"`
	To   string `json:"to" yaml:"to" toml:"to"`
}

// Topology is a decoded, read-only topology.
type Topology struct {
	Roots []*Component
	index map[string]*Component
}

// Lookup returns the component with the given name.
func (t *Topology) Lookup(name string) (*Component, bool) {
	c, ok := t.index[name]
	return c, ok
}

// Len returns the number of components, containers included.
func (t *Topology) Len() int { return len(t.index) }

// Decode reads a snapshot in the given format and builds it with r.
func Decode(rd io.Reader, format Format, r *Registry) (*Topology, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	spec, err := Unmarshal(data, format)
	if err != nil {
		return nil, err
	}
	return Build(spec, r)
}

// ReadFile decodes the snapshot at path, inferring the format from its
// extension.
func ReadFile(path string, r *Registry) (*Topology, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f, format, r)
}

// Unmarshal parses snapshot bytes without building them.
func Unmarshal(data []byte, format Format) (ComponentSpec, error) {
	var spec ComponentSpec
	var err error
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&spec)
	case FormatYAML:
		err = yaml.Unmarshal(data, &spec)
	case FormatTOML:
		err = toml.Unmarshal(data, &spec)
	default:
		return spec, errors.New(errors.ErrCodeInvalidFormat, "unsupported snapshot format %q", format)
	}
	if err != nil {
		return spec, errors.Wrap(errors.ErrCodeInvalidTopology, err, "decode %s snapshot", format)
	}
	return spec, nil
}

// Build constructs a topology from a decoded snapshot. A root without name
// and factory is a plain sequence: each of its children becomes a root.
func Build(spec ComponentSpec, r *Registry) (*Topology, error) {
	b := NewBuilder(r)

	var links []LinkSpec
	var ghosts []pendingGhost

	roots := []ComponentSpec{spec}
	if spec.Name == "" && spec.Factory == "" {
		roots = spec.Children
		links = append(links, spec.Links...)
	}
	for _, rs := range roots {
		if err := addSpec(b, nil, rs, &links, &ghosts); err != nil {
			return nil, err
		}
	}

	// Ghosts resolve innermost first so a container can expose a child's
	// proxy port.
	for i := len(ghosts) - 1; i >= 0; i-- {
		g := ghosts[i]
		target, err := b.Port(g.spec.Target)
		if err != nil {
			return nil, fmt.Errorf("ghost %s.%s: %w", g.container.Name(), g.spec.Name, err)
		}
		if _, err := b.Ghost(g.container, g.spec.Name, target); err != nil {
			return nil, err
		}
	}

	for _, l := range links {
		if err := b.LinkRefs(l.From, l.To); err != nil {
			return nil, fmt.Errorf("link %s -> %s: %w", l.From, l.To, err)
		}
	}

	return &Topology{Roots: b.Roots(), index: b.byName}, nil
}

type pendingGhost struct {
	container *Component
	spec      GhostSpec
}

func addSpec(b *Builder, parent *Component, s ComponentSpec, links *[]LinkSpec, ghosts *[]pendingGhost) error {
	props, err := propertiesFromSpec(s.Properties)
	if err != nil {
		return fmt.Errorf("component %s: %w", s.Name, err)
	}

	fallback := KindLeaf
	if len(s.Children) > 0 || len(s.Ghosts) > 0 {
		fallback = KindContainer
	}
	if s.Kind != "" {
		k, ok := ParseKind(s.Kind)
		if !ok {
			return errors.New(errors.ErrCodeInvalidTopology, "component %s: unknown kind %q", s.Name, s.Kind)
		}
		fallback = k
	}

	c, err := b.Add(parent, Spec{
		Name:       s.Name,
		Factory:    s.Factory,
		Inputs:     s.Inputs,
		Outputs:    s.Outputs,
		Properties: props,
		Fallback:   fallback,
	})
	if err != nil {
		return err
	}

	*links = append(*links, s.Links...)
	for _, g := range s.Ghosts {
		*ghosts = append(*ghosts, pendingGhost{container: c, spec: g})
	}
	for _, child := range s.Children {
		if err := addSpec(b, c, child, links, ghosts); err != nil {
			return err
		}
	}
	return nil
}

func propertiesFromSpec(specs []PropertySpec) ([]Property, error) {
	props := make([]Property, 0, len(specs))
	for _, ps := range specs {
		if ps.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidTopology, "property without a name")
		}
		p := Property{
			Name:     ps.Name,
			Writable: ps.Writable == nil || *ps.Writable,
			Default:  normalizeValue(ps.Default),
			Value:    normalizeValue(ps.Value),
		}
		if ps.Error != "" {
			p.Err = errors.New(errors.ErrCodeInternal, "%s", ps.Error)
			p.Value = nil
		}
		if ps.Name == CapsProperty {
			if s, ok := p.Value.(string); ok {
				p.Value = Caps(s)
			}
		}
		props = append(props, p)
	}
	return props, nil
}

// normalizeValue turns decoder-specific number types into int64 or float64.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case int:
		return int64(n)
	}
	return v
}
