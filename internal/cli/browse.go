package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/launchgraph/pkg/graph"
	"github.com/matzehuels/launchgraph/pkg/props"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	detailKeyStyle    = lipgloss.NewStyle().Foreground(colorGray)
	detailBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// browseCommand creates the browse command, an interactive element viewer.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		flags       pipelineFlags
		inputFormat string
	)

	cmd := &cobra.Command{
		Use:   "browse <topology>",
		Short: "Explore the elements of a topology snapshot interactively",
		Long: `Explore the elements of a topology snapshot interactively.

Each element is listed in launch order with its upstream and downstream
neighbours and the settings that would appear on the launch line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0], inputFormat, flags)
		},
	}

	cmd.Flags().StringVar(&flags.discardConfig, "discard-config", "", "discard policy file")
	cmd.Flags().StringVar(&flags.registry, "registry", "", "registry file extending the built-in factory kinds")
	cmd.Flags().StringVar(&inputFormat, "input-format", "", "snapshot format: json, yaml or toml (default: from the file extension)")

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, path, format string, flags pipelineFlags) error {
	in, err := readInput(path, format)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	opts := c.pipelineOptions(ctx, flags)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cacheFlags{noCache: true})
	if err != nil {
		return err
	}
	defer runner.Close()

	g, err := runner.Build(ctx, in, opts)
	if err != nil {
		return err
	}

	m := NewBrowseModel(browseEntries(g, props.Extractor{Logger: opts.Logger}, opts.LaunchOptions().Policy), in.Source)
	_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

// =============================================================================
// BrowseModel - Interactive element list
// =============================================================================

// browseEntry is everything the viewer shows about one element.
type browseEntry struct {
	ID         string
	Factory    string
	Kind       string
	Caps       string
	Upstream   []string
	Downstream []string
	Settings   []props.Setting
}

// browseEntries collects the entries of g in graph order.
func browseEntries(g *graph.Graph, ex props.Extractor, policy props.Policy) []browseEntry {
	out := make([]browseEntry, 0, g.Len())
	for _, c := range g.Components() {
		id := graph.ID(c)
		e := browseEntry{
			ID:         id,
			Factory:    c.Factory(),
			Kind:       c.Kind().String(),
			Upstream:   g.Predecessors(id),
			Downstream: g.Successors(id),
			Settings:   ex.Extract(c, policy),
		}
		if caps, ok := c.Caps(); ok {
			e.Caps = caps
		}
		out = append(out, e)
	}
	return out
}

// BrowseModel is the bubbletea model of the browse command.
type BrowseModel struct {
	Entries []browseEntry
	Source  string
	Cursor  int
	Height  int
	Offset  int
}

// NewBrowseModel creates a model positioned on the first entry.
func NewBrowseModel(entries []browseEntry, source string) BrowseModel {
	return BrowseModel{Entries: entries, Source: source, Height: 12}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Entries)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			m.Cursor = max(len(m.Entries)-1, 0)
			m.Offset = max(m.Cursor-m.Height+1, 0)
		}
	case tea.WindowSizeMsg:
		// Leave room for the title, help line and detail box.
		m.Height = max(msg.Height/2-4, 5)
	}
	return m, nil
}

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Elements of " + m.Source))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if len(m.Entries) == 0 {
		b.WriteString(listDimStyle.Render("  no elements"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Entries))
	for i := m.Offset; i < end; i++ {
		e := m.Entries[i]
		line := fmt.Sprintf("%-32s %s", e.ID, listDimStyle.Render(e.Factory))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ ") + listSelectedStyle.Render(line))
		} else {
			b.WriteString("  " + listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Entries))))
	b.WriteString("\n")
	b.WriteString(detailBoxStyle.Render(m.Entries[m.Cursor].detail()))
	return b.String()
}

func (e browseEntry) detail() string {
	var b strings.Builder
	row := func(key, value string) {
		b.WriteString(detailKeyStyle.Render(fmt.Sprintf("%-10s", key)) + " " + value + "\n")
	}
	row("factory", StyleValue.Render(e.Factory))
	row("kind", renderKind(e.Kind))
	if e.Caps != "" {
		row("caps", StyleValue.Render(e.Caps))
	}
	row("upstream", StyleValue.Render(joinOrDash(e.Upstream)))
	row("downstream", StyleValue.Render(joinOrDash(e.Downstream)))
	if len(e.Settings) == 0 {
		b.WriteString(listDimStyle.Render("no settings"))
		return b.String()
	}
	b.WriteString(StyleHighlight.Render("settings"))
	for _, s := range e.Settings {
		b.WriteString("\n  " + s.Key + "=" + StyleNumber.Render(s.Value))
	}
	return b.String()
}

func joinOrDash(ids []string) string {
	if len(ids) == 0 {
		return "—"
	}
	return strings.Join(ids, ", ")
}
