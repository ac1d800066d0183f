package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/launchgraph/pkg/errors"
	"github.com/matzehuels/launchgraph/pkg/topology"
)

// registryCommand creates the registry command listing plugin contents.
func (c *CLI) registryCommand() *cobra.Command {
	var (
		file string
		kind string
	)

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "List the known factories and how they are classified",
		Long: `List the known factories and how they are classified.

Containers are flattened into their children, filters are printed as caps
strings and everything else is an element. Factories missing from the
registry are treated as elements unless the snapshot says otherwise.
Use --registry to add plugins from a YAML or TOML file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := topology.DefaultRegistry()
			if file != "" {
				var err error
				if r, err = topology.LoadRegistry(file); err != nil {
					return err
				}
			}
			var kinds []topology.Kind
			if kind != "" {
				k, ok := topology.ParseKind(kind)
				if !ok {
					return errors.New(errors.ErrCodeInvalidInput, "unknown kind %q (want leaf, container or filter)", kind)
				}
				kinds = append(kinds, k)
			}
			writeRegistry(c.out, r, kinds...)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "registry", "", "registry file extending the built-in factory kinds")
	cmd.Flags().StringVar(&kind, "kind", "", "only list factories of this kind")

	return cmd
}

// writeRegistry renders one row per factory, grouped by plugin.
func writeRegistry(w io.Writer, r *topology.Registry, kinds ...topology.Kind) {
	contents := r.Contents()
	var rows [][]string
	for _, plugin := range r.Plugins() {
		first := true
		for _, f := range contents[plugin] {
			if len(kinds) > 0 && !slices.Contains(kinds, f.Kind) {
				continue
			}
			name := ""
			if first {
				name = plugin
				first = false
			}
			rows = append(rows, []string{name, f.Factory, f.Kind.String()})
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Plugin", "Factory", "Kind").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			switch col {
			case 0:
				return base.Foreground(colorCyan)
			case 2:
				return base.Foreground(kindColor(rows[row][2]))
			}
			return base
		})

	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("%d factories in %d plugins", len(rows), len(r.Plugins()))))
}
