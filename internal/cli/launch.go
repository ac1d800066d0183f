package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/launchgraph/pkg/pipeline"
)

// launchOpts holds the flags of the launch command.
type launchOpts struct {
	pipeline pipelineFlags
	cache    cacheFlags
	output   string
	format   string
	verify   bool
	refresh  bool
}

// launchCommand creates the launch command, the main entry point.
func (c *CLI) launchCommand() *cobra.Command {
	var opts launchOpts

	cmd := &cobra.Command{
		Use:   "launch <topology>",
		Short: "Print a topology snapshot as a gst-launch line",
		Long: `Print a topology snapshot as a gst-launch line.

The snapshot is a JSON, YAML or TOML description of a running pipeline:
its components, their ports, links and current property values. Use "-" to
read JSON from stdin (or another encoding with --input-format).

Properties equal to their default, read-only properties and properties
named by the discard policy are left out. Results are cached locally
unless --no-cache is given.`,
		Example: `  launchgraph launch pipeline.yaml
  launchgraph launch --no-command -o pipeline.sh pipeline.json
  cat pipeline.json | launchgraph launch --verify -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLaunch(cmd.Context(), args[0], opts)
		},
	}

	opts.pipeline.register(cmd)
	opts.cache.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the launch line to a file instead of stdout")
	cmd.Flags().StringVar(&opts.format, "input-format", "", "snapshot format: json, yaml or toml (default: from the file extension)")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "re-parse the launch line and check it against the graph")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")

	return cmd
}

func (c *CLI) runLaunch(ctx context.Context, path string, opts launchOpts) error {
	logger := loggerFromContext(ctx)
	in, err := readInput(path, opts.format)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	popts := opts.pipeline.options()
	popts.Verify = opts.verify
	popts.Refresh = opts.refresh
	popts.Logger = logger

	prog := newProgress(logger)
	res, err := runner.Execute(ctx, in, popts)
	if err != nil {
		return err
	}

	if opts.output == "" {
		fmt.Fprintln(c.out, res.Launch)
		logger.Debug("serialized", "nodes", res.Stats.Nodes, "edges", res.Stats.Edges, "cached", res.CacheInfo.LaunchHit)
		return nil
	}

	if err := os.WriteFile(opts.output, []byte(res.Launch+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	prog.done(fmt.Sprintf("Serialized %d elements", res.Stats.Nodes))
	printSuccess("Launch line written")
	printFile(opts.output)
	printStats(res.Stats.Nodes, res.Stats.Edges, res.CacheInfo.LaunchHit)
	if opts.verify {
		printDetail("verified against %d links", res.Stats.Edges)
	}
	if !popts.NoCommand {
		printNextStep("Run it", "sh "+opts.output)
	}
	return nil
}

// pipelineOptions is the shared conversion for commands that only build.
func (c *CLI) pipelineOptions(ctx context.Context, f pipelineFlags) pipeline.Options {
	o := f.options()
	o.Logger = loggerFromContext(ctx)
	return o
}
