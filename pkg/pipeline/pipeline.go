// Package pipeline turns topology snapshots into launch lines.
//
// The CLI and the HTTP server share this package so both apply the same
// defaults, the same cycle check and the same caching.
//
// # Stages
//
//  1. Decode: read the snapshot and classify components with the registry
//  2. Build: flatten and check connectivity into a graph
//  3. Serialize: render the graph as a launch line
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Input{Data: data, Format: topology.FormatYAML}, pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Launch)
package pipeline

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/launchgraph/pkg/cache"
	"github.com/matzehuels/launchgraph/pkg/errors"
	"github.com/matzehuels/launchgraph/pkg/launch"
	"github.com/matzehuels/launchgraph/pkg/props"
	"github.com/matzehuels/launchgraph/pkg/topology"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a pipeline run. The JSON form is what the HTTP API
// accepts as query parameters and request fields.
type Options struct {
	Command        string `json:"command,omitempty"`
	ElementIndent  string `json:"element_indent,omitempty"`
	PropertyIndent string `json:"property_indent,omitempty"`
	Level          int    `json:"level,omitempty"`

	// NoCommand omits the command line, which an empty Command cannot
	// express because it means "use the default".
	NoCommand bool `json:"no_command,omitempty"`

	// DiscardConfig is a policy file. Load failures are logged and leave
	// the policy empty.
	DiscardConfig string `json:"-"`
	// Policy is merged with the file policy.
	Policy props.Policy `json:"policy,omitempty"`
	// Registry is a registry file extending the default registry.
	Registry string `json:"-"`

	// Verify re-parses the produced line and checks it against the graph.
	Verify  bool `json:"verify,omitempty"`
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
	registry  *topology.Registry
	policy    props.Policy
}

// Result holds the output of a run.
type Result struct {
	Launch       string
	SnapshotHash string
	Stats        Stats
	CacheInfo    CacheInfo
}

// Stats contains counts and timings.
type Stats struct {
	Nodes         int
	Edges         int
	BuildTime     time.Duration
	SerializeTime time.Duration
}

// CacheInfo reports which stages were served from cache.
type CacheInfo struct {
	LaunchHit bool
}

// ValidateAndSetDefaults checks the options, applies defaults and loads the
// registry and policy files. Calling it twice is the same as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Command == "" && !o.NoCommand {
		o.Command = launch.DefaultCommand
	}
	if o.NoCommand {
		o.Command = ""
	}
	if o.ElementIndent == "" {
		o.ElementIndent = launch.DefaultElementIndent
	}
	if o.PropertyIndent == "" {
		o.PropertyIndent = launch.DefaultPropertyIndent
	}
	if err := errors.ValidateIndent(o.ElementIndent); err != nil {
		return err
	}
	if err := errors.ValidateIndent(o.PropertyIndent); err != nil {
		return err
	}
	if o.Level < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "level must not be negative")
	}

	o.registry = topology.DefaultRegistry()
	if o.Registry != "" {
		r, err := topology.LoadRegistry(o.Registry)
		if err != nil {
			return err
		}
		o.registry = r
	}

	o.policy = props.LoadPolicyOrEmpty(o.DiscardConfig, o.Logger).Merge(o.Policy)
	o.validated = true
	return nil
}

// LaunchOptions returns the serializer options.
func (o *Options) LaunchOptions() launch.Options {
	return launch.Options{
		Command:        o.Command,
		ElementIndent:  o.ElementIndent,
		PropertyIndent: o.PropertyIndent,
		Level:          o.Level,
		Policy:         o.policy,
	}
}

// LaunchKeyOpts returns the cache key options for a launch line.
func (o *Options) LaunchKeyOpts() cache.LaunchKeyOpts {
	return cache.LaunchKeyOpts{
		Command:        o.Command,
		ElementIndent:  o.ElementIndent,
		PropertyIndent: o.PropertyIndent,
		Level:          o.Level,
		Policy:         o.policy,
		Registry:       o.registryHash(),
	}
}

// TopologyRegistry returns the registry loaded by ValidateAndSetDefaults.
func (o *Options) TopologyRegistry() *topology.Registry {
	if o.registry == nil {
		return topology.DefaultRegistry()
	}
	return o.registry
}

func (o *Options) registryHash() string {
	if o.Registry == "" {
		return ""
	}
	data, err := os.ReadFile(o.Registry)
	if err != nil {
		return o.Registry
	}
	return cache.Hash(data)
}
