package launch

import "slices"

// Ledger records, per join node, the levels at which its producers arrived.
// One Ledger belongs to one Serialize call.
type Ledger struct {
	levels map[string][]int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{levels: make(map[string][]int)}
}

// Arrive records an arrival at id on level and returns how many arrivals
// id has seen so far.
func (l *Ledger) Arrive(id string, level int) int {
	l.levels[id] = append(l.levels[id], level)
	return len(l.levels[id])
}

// MinLevel returns the smallest recorded level of id, or 0 when none.
func (l *Ledger) MinLevel(id string) int {
	if len(l.levels[id]) == 0 {
		return 0
	}
	return slices.Min(l.levels[id])
}
