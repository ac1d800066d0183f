// Package connect decides whether two components are linked, looking through
// any number of container proxy ports.
package connect

import "github.com/matzehuels/launchgraph/pkg/topology"

// Resolution reports whether a port chain ended on a real port.
type Resolution int

const (
	// NotResolved means the chain ended unlinked or looped.
	NotResolved Resolution = iota
	// Resolved means the chain ended on a non-proxy port.
	Resolved
)

// Link is the outcome of checking a pair of components.
type Link int

const (
	// Unlinked means no port of either component reaches the other.
	Unlinked Link = iota
	// AtoB means an output of the first component feeds an input of the second.
	AtoB
	// BtoA means an output of the second component feeds an input of the first.
	BtoA
)

// String returns a short label for logs.
func (l Link) String() string {
	switch l {
	case AtoB:
		return "a->b"
	case BtoA:
		return "b->a"
	default:
		return "unlinked"
	}
}

// maxHops bounds a single resolution walk.
const maxHops = 1024

// Resolve follows p's peer through proxy pairs until it reaches a non-proxy
// port. Each proxy is crossed by hopping to its internal counterpart and then
// to that port's peer.
func Resolve(p *topology.Port) (*topology.Port, Resolution) {
	if p == nil {
		return nil, NotResolved
	}
	return follow(p.Peer(), (*topology.Port).IsProxy, func(proxy *topology.Port) *topology.Port {
		inner := proxy.Internal()
		if inner == nil {
			return nil
		}
		return inner.Peer()
	})
}

// follow walks from start, applying hop while the reached port is a proxy.
// It gives up on a zero port, on a port seen before and after maxHops.
func follow[P comparable](start P, isProxy func(P) bool, hop func(P) P) (P, Resolution) {
	var zero P
	seen := make(map[P]struct{})
	cur := start
	for hops := 0; cur != zero && hops < maxHops; hops++ {
		if !isProxy(cur) {
			return cur, Resolved
		}
		if _, loop := seen[cur]; loop {
			return zero, NotResolved
		}
		seen[cur] = struct{}{}
		cur = hop(cur)
	}
	return zero, NotResolved
}

// Linked reports whether out and in are connected, either directly or
// through proxies. Proxy links count only when each side resolves to the
// other.
func Linked(out, in *topology.Port) bool {
	if out == nil || in == nil {
		return false
	}
	if out.Peer() == in && in.Peer() == out {
		return true
	}
	a, ok := Resolve(out)
	if ok != Resolved || a != in {
		return false
	}
	b, ok := Resolve(in)
	return ok == Resolved && b == out
}

// Direction checks every port pair between a and b. Inputs of a against
// outputs of b are checked first, so BtoA wins when both hold.
func Direction(a, b *topology.Component) Link {
	for _, in := range a.Inputs() {
		for _, out := range b.Outputs() {
			if Linked(out, in) {
				return BtoA
			}
		}
	}
	for _, in := range b.Inputs() {
		for _, out := range a.Outputs() {
			if Linked(out, in) {
				return AtoB
			}
		}
	}
	return Unlinked
}
