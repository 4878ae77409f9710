package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ruleflow/pkg/flow"
	"github.com/matzehuels/ruleflow/pkg/graph"
	"github.com/matzehuels/ruleflow/pkg/source"
	"github.com/matzehuels/ruleflow/pkg/trace"
)

// inspectOpts holds the flags of the inspect command.
type inspectOpts struct {
	events bool     // list every firing event
	asJSON bool     // print the graph as JSON instead of tables
	ignore []string // extra ignore prefixes on top of the config
}

// inspectCommand creates the inspect command, which prints the flow graph
// of a trace to the terminal without rendering anything.
func (c *CLI) inspectCommand() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect [trace]",
		Short: "Print the tiers and transitions of a trace",
		Long: `Print the tiers and transitions of a trace.

Shows the summary line, whether the flow contains a cycle, the rule that
fired last and a table with one column per tier. With --events every
firing is listed with its line number and tier. With --json the graph is
printed in the same JSON format that 'render -f json' embeds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ignore = append(append([]string(nil), c.Config.Trace.Ignore...), opts.ignore...)
			return runInspect(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.events, "events", false, "list every firing event")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the flow graph as JSON")
	cmd.Flags().StringSliceVar(&opts.ignore, "ignore", nil, "drop firings of rules with this name prefix (repeatable)")

	return cmd
}

func runInspect(ctx context.Context, input string, opts inspectOpts) error {
	logger := loggerFromContext(ctx)

	text, err := source.ReadFile(input)
	if err != nil {
		return err
	}

	sched := trace.NewScheduler(opts.ignore...)
	firings := trace.Scan(text)
	st := sched.Build(firings)
	logger.Debug("scanned trace", "firings", len(firings), "nodes", st.NodeCount())

	if opts.asJSON {
		return graph.WriteGraph(st, stdout)
	}

	fmt.Fprintln(stdout, StyleTitle.Render(st.Summary()))
	printKeyValue("Cyclic", strconv.FormatBool(st.HasCycle()))
	if last := st.LastRule(); last != "" {
		printKeyValue("Last rule", flow.Flatten(last))
	}
	printKeyValue("Firings", strconv.Itoa(len(firings)))
	printNewline()
	fmt.Fprintln(stdout, columnsTable(st.Columns(), st.LastRule()))

	if opts.events {
		printNewline()
		fmt.Fprintln(stdout, eventsTable(firings, st, sched))
	}
	return nil
}

// eventsTable lists firings with their line number and tier. Ignored
// firings are shown dimmed with no tier.
func eventsTable(firings []trace.Firing, st *flow.State, sched *trace.Scheduler) string {
	rows := make([][]string, len(firings))
	ignored := make([]bool, len(firings))
	for i, f := range firings {
		tier := "—"
		if sched.Ignores(f.Rule) {
			ignored[i] = true
			tier = "ignored"
		} else if t, ok := st.Tier(f.Label); ok {
			tier = strconv.Itoa(t)
		}
		rows[i] = []string{strconv.Itoa(f.Line), f.Rule, strings.ReplaceAll(f.Label, "\n", " / "), tier}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("Line", "Rule", "Label", "Tier").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == -1:
				return styleTableHeader.Padding(0, 1)
			case ignored[row]:
				return base.Foreground(colorDim)
			case col == 0 || col == 3:
				return base.Foreground(colorGray)
			default:
				return base.Foreground(colorWhite)
			}
		}).
		Render()
}
