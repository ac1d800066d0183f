package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/launchgraph/internal/server"
	"github.com/matzehuels/launchgraph/pkg/store"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	pipeline        pipelineFlags
	cache           cacheFlags
	addr            string
	mongoURI        string
	mongoDatabase   string
	storeDir        string
	ttl             time.Duration
	cleanupInterval time.Duration
}

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:            server.DefaultAddr,
		ttl:             store.DefaultTTL,
		cleanupInterval: time.Hour,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the launch line API over HTTP",
		Long: `Serve the launch line API over HTTP.

Routes:
  POST /v1/launch             serialize a snapshot and store it
  GET  /v1/launch             list stored snapshots
  GET  /v1/launch/{id}        fetch a stored launch line
  GET  /v1/launch/{id}/graph  draw a stored snapshot as DOT or SVG
  GET  /healthz

Snapshots are stored in MongoDB when --mongo-uri is set, in --store-dir
when given, and in memory otherwise. Serializer flags set the defaults that
requests can override with query parameters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	opts.pipeline.register(cmd)
	opts.cache.register(cmd)
	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", os.Getenv(envMongoURI), "store snapshots in MongoDB (env "+envMongoURI+")")
	cmd.Flags().StringVar(&opts.mongoDatabase, "mongo-db", store.DefaultMongoConfig().Database, "MongoDB database")
	cmd.Flags().StringVar(&opts.storeDir, "store-dir", "", "store snapshots as files in this directory")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", opts.ttl, "how long stored snapshots are kept")
	cmd.Flags().DurationVar(&opts.cleanupInterval, "cleanup-interval", opts.cleanupInterval, "how often expired snapshots are removed (0 disables)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	logger := loggerFromContext(ctx)

	defaults := c.pipelineOptions(ctx, opts.pipeline)
	if err := defaults.ValidateAndSetDefaults(); err != nil {
		return err
	}

	st, err := c.newStore(ctx, opts)
	if err != nil {
		return err
	}
	defer st.Close()

	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if opts.cleanupInterval > 0 {
		go runCleanup(ctx, st, opts.cleanupInterval, logger)
	}

	srv := server.New(server.Config{
		Addr:      opts.addr,
		Runner:    runner,
		Store:     st,
		Logger:    logger,
		RecordTTL: opts.ttl,
		Defaults:  defaults,
	})
	return srv.ListenAndServe(ctx)
}

// newStore picks MongoDB, a directory or memory, in that order.
func (c *CLI) newStore(ctx context.Context, opts serveOpts) (store.Store, error) {
	switch {
	case opts.mongoURI != "":
		spinner := newSpinnerWithContext(ctx, "Connecting to MongoDB...")
		spinner.Start()
		st, err := store.NewMongoStore(ctx, store.MongoConfig{URI: opts.mongoURI, Database: opts.mongoDatabase})
		if err != nil {
			spinner.StopWithError("MongoDB unavailable")
			return nil, err
		}
		spinner.StopWithSuccess("Connected to MongoDB")
		return st, nil
	case opts.storeDir != "":
		st, err := store.NewFileStore(opts.storeDir)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		c.Logger.Info("storing snapshots", "dir", st.Path())
		return st, nil
	}
	printWarning("No persistent store configured, snapshots are kept in memory")
	return store.NewMemoryStore(), nil
}

// runCleanup removes expired records every interval until ctx is done.
func runCleanup(ctx context.Context, st store.Store, interval time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := st.Cleanup(ctx); err != nil {
				logger.Warn("store cleanup failed", "err", err)
			}
		}
	}
}
