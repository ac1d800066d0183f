package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one Redis instance.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LaunchKey generates a prefixed launch-line key.
func (k *ScopedKeyer) LaunchKey(snapshotHash string, opts LaunchKeyOpts) string {
	return k.prefix + k.inner.LaunchKey(snapshotHash, opts)
}

// GraphKey generates a prefixed graph key.
func (k *ScopedKeyer) GraphKey(snapshotHash, registry string) string {
	return k.prefix + k.inner.GraphKey(snapshotHash, registry)
}
