package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/launchgraph/pkg/cache"
	"github.com/matzehuels/launchgraph/pkg/dag"
	"github.com/matzehuels/launchgraph/pkg/errors"
	"github.com/matzehuels/launchgraph/pkg/graph"
	"github.com/matzehuels/launchgraph/pkg/launch"
	"github.com/matzehuels/launchgraph/pkg/observability"
	"github.com/matzehuels/launchgraph/pkg/props"
	"github.com/matzehuels/launchgraph/pkg/topology"
)

// Input is a snapshot to process.
type Input struct {
	Data   []byte
	Format topology.Format
	// Source names the snapshot in logs, typically its path.
	Source string
}

// Runner executes the pipeline with caching. It holds no per-run state and
// can be shared between goroutines.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching and a nil keyer
// uses the default keyer.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// cachedLaunch is the cache payload of a launch line.
type cachedLaunch struct {
	Launch string `json:"launch"`
	Nodes  int    `json:"nodes"`
	Edges  int    `json:"edges"`
}

// Execute decodes, builds and serializes the snapshot.
func (r *Runner) Execute(ctx context.Context, in Input, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	res := &Result{SnapshotHash: cache.Hash(in.Data)}
	key := r.Keyer.LaunchKey(res.SnapshotHash, opts.LaunchKeyOpts())

	// A cached line may come from an unverified run, so verification always
	// renders afresh.
	if !opts.Refresh && !opts.Verify {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached cachedLaunch
			if json.Unmarshal(data, &cached) == nil {
				observability.Cache().OnCacheHit(ctx, "launch")
				res.Launch = cached.Launch
				res.Stats.Nodes = cached.Nodes
				res.Stats.Edges = cached.Edges
				res.CacheInfo.LaunchHit = true
				return res, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "launch")
	}

	buildStart := time.Now()
	g, err := r.build(ctx, in, &opts)
	if err != nil {
		return nil, err
	}
	res.Stats.BuildTime = time.Since(buildStart)
	res.Stats.Nodes = g.Len()
	res.Stats.Edges = g.EdgeCount()
	r.Logger.Debug("built graph", "nodes", res.Stats.Nodes, "edges", res.Stats.Edges,
		"sources", len(g.Sources()), "sinks", len(g.Sinks()), "duration", res.Stats.BuildTime)

	serializeStart := time.Now()
	observability.Pipeline().OnSerializeStart(ctx, g.Len())
	lopts := opts.LaunchOptions()
	line := launch.Render(g, props.Extractor{Logger: opts.Logger}, lopts)
	res.Launch = line.Text
	if opts.Verify {
		// Read failures were already reported while rendering.
		quiet := props.Extractor{Logger: log.NewWithOptions(io.Discard, log.Options{})}
		err = Verify(g, line, quiet, lopts)
	}
	res.Stats.SerializeTime = time.Since(serializeStart)
	observability.Pipeline().OnSerializeComplete(ctx, len(res.Launch), res.Stats.SerializeTime, err)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(cachedLaunch{Launch: res.Launch, Nodes: res.Stats.Nodes, Edges: res.Stats.Edges}); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLLaunch); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "launch", len(data))
		}
	}
	return res, nil
}

// Build decodes the snapshot and builds its graph without serializing.
func (r *Runner) Build(ctx context.Context, in Input, opts Options) (*graph.Graph, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return r.build(ctx, in, &opts)
}

// Document returns the exported graph, from cache when possible.
func (r *Runner) Document(ctx context.Context, in Input, opts Options) (graph.Document, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return graph.Document{}, fmt.Errorf("invalid options: %w", err)
	}

	key := r.Keyer.GraphKey(cache.Hash(in.Data), opts.registryHash())
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if doc, err := graph.Unmarshal(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "graph")
				return doc, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "graph")
	}

	g, err := r.build(ctx, in, &opts)
	if err != nil {
		return graph.Document{}, err
	}
	data, err := graph.Marshal(g)
	if err != nil {
		return graph.Document{}, err
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLGraph); err == nil {
		observability.Cache().OnCacheSet(ctx, "graph", len(data))
	}
	return graph.Export(g), nil
}

func (r *Runner) build(ctx context.Context, in Input, opts *Options) (g *graph.Graph, err error) {
	start := time.Now()
	observability.Pipeline().OnBuildStart(ctx, in.Source)
	defer func() {
		nodes, edges := 0, 0
		if g != nil {
			nodes, edges = g.Len(), g.EdgeCount()
		}
		observability.Pipeline().OnBuildComplete(ctx, in.Source, nodes, edges, time.Since(start), err)
	}()

	topo, err := topology.Decode(bytes.NewReader(in.Data), in.Format, opts.TopologyRegistry())
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	g, err = graph.Build(topo.Roots...)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	if err := g.Validate(); err != nil {
		if stderrors.Is(err, dag.ErrGraphHasCycle) {
			if back := g.DAG().BackEdges(); len(back) > 0 {
				return nil, errors.Wrap(errors.ErrCodeCyclicTopology, err, "topology contains a cycle closed by %s -> %s", back[0].From, back[0].To)
			}
			return nil, errors.Wrap(errors.ErrCodeCyclicTopology, err, "topology contains a cycle")
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "invalid graph")
	}
	return g, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
