package props

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/launchgraph/pkg/errors"
)

const (
	// AllTypes is the policy entry that applies to every component type.
	AllTypes = "*"

	// DiscardAll in a type's key list discards every property of that type.
	DiscardAll = "*"
)

// Policy maps a component type name to the configuration keys that are never
// emitted for it. The AllTypes entry applies to every type.
type Policy map[string][]string

// Discarded returns the union of the keys discarded for factory and for
// AllTypes.
func (p Policy) Discarded(factory string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, k := range p[factory] {
		out[k] = struct{}{}
	}
	for _, k := range p[AllTypes] {
		out[k] = struct{}{}
	}
	return out
}

// DiscardsAll reports whether every property of factory is discarded.
func (p Policy) DiscardsAll(factory string) bool {
	return slices.Contains(p[factory], DiscardAll) || slices.Contains(p[AllTypes], DiscardAll)
}

// Merge returns a policy holding the keys of both p and other.
func (p Policy) Merge(other Policy) Policy {
	out := make(Policy, len(p)+len(other))
	for _, src := range []Policy{p, other} {
		for typ, keys := range src {
			for _, k := range keys {
				if !slices.Contains(out[typ], k) {
					out[typ] = append(out[typ], k)
				}
			}
		}
	}
	return out
}

// LoadPolicy reads a discard policy from a YAML (.yaml, .yml) or TOML (.toml)
// file. The file is a mapping of type name to a list of keys:
//
//	"*": [parent]
//	videotestsrc: [timestamp-offset]
//	fakesink: ["*"]
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "policy %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPolicy, err, "read %s", path)
	}

	var p Policy
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	case ".toml":
		err = toml.Unmarshal(data, &p)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported policy file %q (want .yaml, .yml or .toml)", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPolicy, err, "decode %s", path)
	}
	if p == nil {
		p = Policy{}
	}
	return p, nil
}

// LoadPolicyOrEmpty is LoadPolicy that never fails: any error is logged and
// an empty policy, which discards nothing, is returned instead. An empty
// path yields an empty policy without logging.
func LoadPolicyOrEmpty(path string, logger *log.Logger) Policy {
	if path == "" {
		return Policy{}
	}
	p, err := LoadPolicy(path)
	if err != nil {
		if logger == nil {
			logger = log.Default()
		}
		logger.Warn("discard policy unavailable, nothing will be discarded", "path", path, "err", err)
		return Policy{}
	}
	return p
}
