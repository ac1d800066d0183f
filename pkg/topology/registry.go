package topology

import (
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/launchgraph/pkg/errors"
)

// corePlugin is the plugin that owns the built-in factories.
const corePlugin = "coreelements"

// Feature is one factory published by a plugin.
type Feature struct {
	Factory string
	Kind    Kind
}

// Registry is the classification lookup table used when a topology is
// constructed. It maps factory names to kinds and remembers which plugin
// published each factory.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	kinds   map[string]Kind
	plugins map[string][]Feature
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		kinds:   make(map[string]Kind),
		plugins: make(map[string][]Feature),
	}
}

// DefaultRegistry returns a registry that knows the core containers and the
// caps filter. Every other factory classifies as a leaf unless registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(corePlugin, "bin", KindContainer)
	r.Register(corePlugin, "pipeline", KindContainer)
	r.Register(corePlugin, "capsfilter", KindFilter)
	for _, f := range []string{"tee", "queue", "identity", "fakesrc", "fakesink", "filesrc", "filesink", "funnel", "input-selector", "output-selector"} {
		r.Register(corePlugin, f, KindLeaf)
	}
	return r
}

// Register records factory under plugin with the given kind. Registering a
// factory again replaces its kind and moves it to the new plugin.
func (r *Registry) Register(plugin, factory string, k Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.kinds[factory]; exists {
		for p, feats := range r.plugins {
			r.plugins[p] = slices.DeleteFunc(feats, func(f Feature) bool { return f.Factory == factory })
			if len(r.plugins[p]) == 0 {
				delete(r.plugins, p)
			}
		}
	}
	r.kinds[factory] = k
	r.plugins[plugin] = append(r.plugins[plugin], Feature{Factory: factory, Kind: k})
}

// Classify returns the kind registered for factory.
// The second result is false when the factory is unknown.
func (r *Registry) Classify(factory string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[factory]
	return k, ok
}

// Plugins returns plugin names in sorted order.
func (r *Registry) Plugins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.plugins))
}

// Contents returns the features of every plugin, sorted by factory name.
func (r *Registry) Contents() map[string][]Feature {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]Feature, len(r.plugins))
	for p, feats := range r.plugins {
		sorted := slices.Clone(feats)
		slices.SortFunc(sorted, func(a, b Feature) int {
			switch {
			case a.Factory < b.Factory:
				return -1
			case a.Factory > b.Factory:
				return 1
			}
			return 0
		})
		out[p] = sorted
	}
	return out
}

// Factories returns the registered factories of the given kinds, sorted.
// With no kinds it returns every factory.
func (r *Registry) Factories(kinds ...Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for f, k := range r.kinds {
		if len(kinds) == 0 || slices.Contains(kinds, k) {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return out
}

// Merge copies every registration of other into r.
func (r *Registry) Merge(other *Registry) {
	for plugin, feats := range other.Contents() {
		for _, f := range feats {
			r.Register(plugin, f.Factory, f.Kind)
		}
	}
}

// registryFile is the on-disk form of a registry extension:
//
//	plugins:
//	  videotestsrc:
//	    - {factory: videotestsrc}
//	  mybins:
//	    - {factory: camerabin, kind: container}
type registryFile struct {
	Plugins map[string][]struct {
		Factory string `yaml:"factory" toml:"factory"`
		Kind    string `yaml:"kind" toml:"kind"`
	} `yaml:"plugins" toml:"plugins"`
}

// LoadRegistry reads a YAML or TOML registry file and merges it on top of
// DefaultRegistry.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "registry %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidRegistry, err, "read %s", path)
	}

	var rf registryFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &rf)
	case ".toml":
		err = toml.Unmarshal(data, &rf)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported registry file %q (want .yaml, .yml or .toml)", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRegistry, err, "decode %s", path)
	}

	r := DefaultRegistry()
	for _, plugin := range slices.Sorted(maps.Keys(rf.Plugins)) {
		for _, f := range rf.Plugins[plugin] {
			if err := errors.ValidateFactoryName(f.Factory); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidRegistry, err, "plugin %s", plugin)
			}
			k, ok := ParseKind(f.Kind)
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidRegistry, "plugin %s: factory %s has unknown kind %q", plugin, f.Factory, f.Kind)
			}
			r.Register(plugin, f.Factory, k)
		}
	}
	return r, nil
}
