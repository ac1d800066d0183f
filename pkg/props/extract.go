package props

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/launchgraph/pkg/topology"
)

// Setting is one emitted configuration key with its canonical value.
type Setting struct {
	Key   string
	Value string
}

// Extractor selects the non-default, writable, non-discarded properties of a
// component. The zero value logs to log.Default.
type Extractor struct {
	Logger *log.Logger
}

// Extract returns the settings of c that belong on a launch line, in
// declaration order. It is pure apart from logging: calling it twice on an
// unchanged component yields the same result.
func (e Extractor) Extract(c *topology.Component, policy Policy) []Setting {
	if policy.DiscardsAll(c.Factory()) {
		return nil
	}
	discard := policy.Discarded(c.Factory())
	keepName := len(c.Inputs()) > 1 || len(c.Outputs()) > 1

	var out []Setting
	for _, p := range c.Properties() {
		if _, skip := discard[p.Name]; skip {
			continue
		}
		if !p.Writable {
			continue
		}
		if p.Name == topology.NameProperty && !keepName {
			continue
		}
		if p.Err != nil {
			e.logger().Warn("could not read property", "component", c.Name(), "property", p.Name, "err", p.Err)
			continue
		}
		if p.Value == nil {
			continue
		}
		value := Canonical(p.Value)
		if value == Canonical(p.Default) {
			continue
		}
		out = append(out, Setting{Key: p.Name, Value: value})
	}
	return out
}

func (e Extractor) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}
