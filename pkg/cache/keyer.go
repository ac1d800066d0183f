package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// LaunchKeyOpts are the options that change a rendered launch line.
type LaunchKeyOpts struct {
	Command        string              `json:"command"`
	ElementIndent  string              `json:"element_indent"`
	PropertyIndent string              `json:"property_indent"`
	Level          int                 `json:"level"`
	Policy         map[string][]string `json:"policy,omitempty"`
	Registry       string              `json:"registry,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// LaunchKey is the key of a rendered launch line.
	LaunchKey(snapshotHash string, opts LaunchKeyOpts) string

	// GraphKey is the key of an exported graph document.
	GraphKey(snapshotHash, registry string) string
}

// DefaultKeyer is the unscoped Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LaunchKey hashes the snapshot hash together with opts. Policy maps are
// marshalled with sorted keys, so equal policies give equal keys.
func (DefaultKeyer) LaunchKey(snapshotHash string, opts LaunchKeyOpts) string {
	return hashKey("launch", snapshotHash, opts)
}

// GraphKey hashes the snapshot hash together with the registry used to
// classify it.
func (DefaultKeyer) GraphKey(snapshotHash, registry string) string {
	return hashKey("graph", snapshotHash, registry)
}

var _ Keyer = DefaultKeyer{}

// Hash returns the hex SHA-256 of data. Snapshots are keyed by the hash of
// their raw bytes, so reformatting a file invalidates its entries.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns prefix:hex(sha256(json(parts))).
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}
