// Package cli implements the launchgraph command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/launchgraph/pkg/buildinfo"
	"github.com/matzehuels/launchgraph/pkg/cache"
	"github.com/matzehuels/launchgraph/pkg/errors"
	"github.com/matzehuels/launchgraph/pkg/observability"
	"github.com/matzehuels/launchgraph/pkg/pipeline"
	"github.com/matzehuels/launchgraph/pkg/topology"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "launchgraph"

	// policyFile is the discard policy looked up in the config directory.
	policyFile = "property_filter.yaml"

	envRedisAddr   = "LAUNCHGRAPH_REDIS_ADDR"
	envCachePrefix = "LAUNCHGRAPH_CACHE_PREFIX"
	envMongoURI    = "LAUNCHGRAPH_MONGO_URI"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level. At debug level the pipeline,
// cache and HTTP hooks are logged as well.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		hooks := observability.NewLogHooks(c.Logger)
		observability.SetPipelineHooks(hooks)
		observability.SetCacheHooks(hooks)
		observability.SetHTTPHooks(hooks)
	}
}

// SetOutput redirects command output, which defaults to stdout.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Launchgraph prints pipeline topologies as gst-launch lines",
		Long:         `Launchgraph reads a snapshot of a running media pipeline and rewrites it as a gst-launch command line that rebuilds the same topology, with every non-default property spelled out.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.out)

	root.AddCommand(c.launchCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.registryCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// cacheFlags selects the cache backend of a runner.
type cacheFlags struct {
	noCache   bool
	redisAddr string
	prefix    string
}

func (f *cacheFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&f.redisAddr, "redis-addr", os.Getenv(envRedisAddr), "cache in Redis at this address or redis:// URL instead of on disk (env "+envRedisAddr+")")
	cmd.Flags().StringVar(&f.prefix, "cache-prefix", os.Getenv(envCachePrefix), "prefix for cache keys, for sharing one Redis between deployments (env "+envCachePrefix+")")
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, f cacheFlags) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, f)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if f.prefix != "" {
		keyer = cache.NewScopedKeyer(nil, f.prefix)
	}
	return pipeline.NewRunner(cc, keyer, c.Logger), nil
}

// newCache picks Redis when an address is given, otherwise the file cache.
// An unreachable Redis degrades to the file cache with a warning.
func (c *CLI) newCache(ctx context.Context, f cacheFlags) (cache.Cache, error) {
	if f.noCache {
		return cache.NewNullCache(), nil
	}
	if f.redisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, redisConfig(f.redisAddr))
		if err == nil {
			return rc, nil
		}
		c.Logger.Warn("redis unavailable, using file cache", "addr", f.redisAddr, "err", err)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

func redisConfig(addr string) cache.RedisConfig {
	cfg := cache.DefaultRedisConfig()
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		cfg.URL = addr
	} else {
		cfg.Addr = addr
	}
	return cfg
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/launchgraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory using XDG standard (~/.config/launchgraph/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// defaultPolicyPath returns the config directory policy file if it exists.
func defaultPolicyPath() string {
	dir, err := configDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, policyFile)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// =============================================================================
// Options Helpers
// =============================================================================

// pipelineFlags are the serializer flags shared by launch, graph and serve.
type pipelineFlags struct {
	command        string
	noCommand      bool
	elementIndent  string
	propertyIndent string
	level          int
	discardConfig  string
	registry       string
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	defaults := pipeline.Options{}
	_ = defaults.ValidateAndSetDefaults()

	cmd.Flags().StringVar(&f.command, "command", defaults.Command, "command line placed before the pipeline")
	cmd.Flags().BoolVar(&f.noCommand, "no-command", false, "omit the command line")
	cmd.Flags().StringVar(&f.elementIndent, "element-indent", defaults.ElementIndent, "indent per nesting level")
	cmd.Flags().StringVar(&f.propertyIndent, "property-indent", defaults.PropertyIndent, "extra indent of property lines")
	cmd.Flags().IntVar(&f.level, "level", 0, "starting nesting level")
	cmd.Flags().StringVar(&f.discardConfig, "discard-config", "", "discard policy file (default "+filepath.Join("$XDG_CONFIG_HOME", appName, policyFile)+")")
	cmd.Flags().StringVar(&f.registry, "registry", "", "registry file extending the built-in factory kinds")
}

func (f *pipelineFlags) options() pipeline.Options {
	discard := f.discardConfig
	if discard == "" {
		discard = defaultPolicyPath()
	}
	return pipeline.Options{
		Command:        f.command,
		NoCommand:      f.noCommand,
		ElementIndent:  f.elementIndent,
		PropertyIndent: f.propertyIndent,
		Level:          f.level,
		DiscardConfig:  discard,
		Registry:       f.registry,
	}
}

// readInput reads a snapshot file, or stdin when path is "-". Stdin is
// decoded as format, which defaults to JSON.
func readInput(path, format string) (pipeline.Input, error) {
	if path == "-" {
		f := topology.FormatJSON
		if format != "" {
			f = topology.Format(format)
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return pipeline.Input{}, err
		}
		return pipeline.Input{Data: data, Format: f, Source: "stdin"}, nil
	}

	f := topology.Format(format)
	if format == "" {
		var err error
		if f, err = topology.FormatFromPath(path); err != nil {
			return pipeline.Input{}, err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return pipeline.Input{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return pipeline.Input{}, err
	}
	return pipeline.Input{Data: data, Format: f, Source: path}, nil
}
