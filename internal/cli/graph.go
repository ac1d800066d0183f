package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/launchgraph/pkg/errors"
	"github.com/matzehuels/launchgraph/pkg/render/dot"
)

const (
	graphFormatDOT = "dot"
	graphFormatSVG = "svg"
	graphFormatPNG = "png"
)

// graphOpts holds the flags of the graph command.
type graphOpts struct {
	pipeline    pipelineFlags
	cache       cacheFlags
	output      string
	inputFormat string
	format      string
	json        bool
	detailed    bool
	clusters    bool
}

// graphCommand creates the graph command for drawing the element graph.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph <topology>",
		Short: "Draw the element graph of a topology snapshot",
		Long: `Draw the element graph of a topology snapshot.

Containers are flattened away, so the graph shows the leaf elements and the
producer to consumer links between them, exactly what the launch line
encodes. Output is Graphviz DOT by default, SVG or PNG with --format, or
the node and edge list with --json.`,
		Example: `  launchgraph graph pipeline.yaml | dot -Tpng > pipeline.png
  launchgraph graph --format svg --clusters -o pipeline.svg pipeline.yaml
  launchgraph graph --json pipeline.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.format {
			case graphFormatDOT, graphFormatSVG, graphFormatPNG:
			default:
				return errors.New(errors.ErrCodeInvalidFormat, "unsupported graph format %q (want dot, svg or png)", opts.format)
			}
			return c.runGraph(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.pipeline.registry, "registry", "", "registry file extending the built-in factory kinds")
	opts.cache.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&opts.inputFormat, "input-format", "", "snapshot format: json, yaml or toml (default: from the file extension)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", graphFormatDOT, "diagram format: dot, svg or png")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the node and edge list as JSON")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "add kind and path to node labels")
	cmd.Flags().BoolVar(&opts.clusters, "clusters", false, "draw containers as clusters")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, path string, opts graphOpts) error {
	in, err := readInput(path, opts.inputFormat)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	popts := c.pipelineOptions(ctx, opts.pipeline)

	var data []byte
	if opts.json {
		doc, err := runner.Document(ctx, in, popts)
		if err != nil {
			return err
		}
		if data, err = json.MarshalIndent(doc, "", "  "); err != nil {
			return err
		}
		data = append(data, '\n')
	} else {
		g, err := runner.Build(ctx, in, popts)
		if err != nil {
			return err
		}
		src := dot.ToDOT(g, dot.Options{Detailed: opts.detailed, Clusters: opts.clusters})
		data = []byte(src)
		switch opts.format {
		case graphFormatSVG:
			data, err = dot.RenderSVG(ctx, src)
		case graphFormatPNG:
			data, err = dot.RenderPNG(ctx, src)
		}
		if err != nil {
			return fmt.Errorf("render %s: %w", opts.format, err)
		}
	}

	if opts.output == "" {
		_, err := c.out.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Graph written")
	printFile(opts.output)
	return nil
}
