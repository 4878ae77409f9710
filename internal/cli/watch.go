package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ruleflow/pkg/errors"
	"github.com/matzehuels/ruleflow/pkg/pipeline"
	"github.com/matzehuels/ruleflow/pkg/watch"
)

// watchOpts holds the flags of the watch command that are not pipeline
// options.
type watchOpts struct {
	output   string
	tui      bool
	debounce time.Duration
}

// watchCommand creates the watch command, which follows a trace and
// re-renders it whenever the file changes.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		flags renderFlags
		wopts watchOpts
	)

	cmd := &cobra.Command{
		Use:   "watch [trace]",
		Short: "Re-render a trace whenever it changes",
		Long: `Follow a trace file and re-render its flow graph whenever it changes.

Bursts of writes are coalesced: the graph is rebuilt from the full trace
once the file has been quiet for the debounce window. Outputs are written
like 'render' does. With --tui a live terminal view shows the summary and
tiers instead of a log of refreshes.

Stop with Ctrl-C (or q in the TUI).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.baseOptions()
			flags.apply(cmd, &opts)
			opts.Source = args[0]
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("debounce") {
				wopts.debounce = c.Config.Watch.Debounce.Duration
			}
			return c.runWatch(cmd.Context(), args[0], opts, wopts, flags.noCache)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVarP(&wopts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&wopts.tui, "tui", false, "show a live terminal view")
	cmd.Flags().DurationVar(&wopts.debounce, "debounce", watch.DefaultDebounce, "quiet period before re-rendering")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, input string, opts pipeline.Options, wopts watchOpts, noCache bool) error {
	logger := loggerFromContext(ctx)

	follower, err := watch.NewFollower(input, wopts.debounce)
	if err != nil {
		return err
	}
	defer follower.Close()

	runner, err := c.newRunner(ctx, noCache, "")
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	refresher := &refresher{runner: runner, opts: opts, input: input, output: wopts.output}

	if wopts.tui {
		// The TUI owns the terminal; keep log lines out of it.
		runner.Logger = discardLogger()
		return runWatchTUI(ctx, follower, refresher)
	}

	logger.Info("watching trace", "path", follower.Path(), "debounce", wopts.debounce)
	return follower.Run(ctx, func(u watch.Update) {
		msg := refresher.refresh(ctx, u)
		printRefresh(msg)
	})
}

// =============================================================================
// Refresh Processing
// =============================================================================

// refreshMsg is the outcome of one pipeline run on a watched trace. It is
// both printed in log mode and sent to the TUI.
type refreshMsg struct {
	seq      int
	at       time.Time
	events   int
	summary  string
	nodes    int
	edges    int
	columns  map[int][]string
	lastRule string
	cyclic   bool
	cached   bool
	files    []string
	elapsed  time.Duration
	err      error
}

// refresher runs the pipeline for each update of a watched trace.
// It is only called from the follower's goroutine.
type refresher struct {
	runner *pipeline.Runner
	opts   pipeline.Options
	input  string
	output string
}

func (r *refresher) refresh(ctx context.Context, u watch.Update) refreshMsg {
	msg := refreshMsg{seq: u.Seq, at: u.Time, events: u.Events}
	if u.Err != nil {
		msg.err = u.Err
		return msg
	}

	start := time.Now()
	result, err := r.runner.Execute(ctx, u.Text, r.opts)
	msg.elapsed = time.Since(start)
	if result != nil && result.State != nil {
		msg.summary = result.State.Summary()
		msg.nodes = result.Stats.NodeCount
		msg.edges = result.Stats.EdgeCount
		msg.columns = result.Layout.Columns
		msg.lastRule = result.State.LastRule()
		msg.cyclic = result.Stats.Cyclic
		msg.cached = result.CacheInfo.RenderHit
	}
	if err != nil {
		msg.err = err
		return msg
	}

	msg.files, msg.err = writeArtifacts(result.Artifacts, r.opts.Formats, r.input, r.output)
	return msg
}

// printRefresh prints one refresh in log mode.
func printRefresh(msg refreshMsg) {
	stamp := StyleDim.Render(msg.at.Format("15:04:05"))
	switch {
	case msg.err != nil && msg.summary == "":
		printError("%s %s", stamp, errors.UserMessage(msg.err))
	case msg.err != nil && errors.IsFatal(msg.err):
		printError("%s %s (%s)", stamp, msg.summary, errors.UserMessage(msg.err))
	case msg.err != nil:
		printWarning("%s %s (%s)", msg.at.Format("15:04:05"), msg.summary, errors.UserMessage(msg.err))
	default:
		printSuccess("%s %s", stamp, msg.summary)
		for _, f := range msg.files {
			printFile(f)
		}
		printStats(msg.nodes, msg.edges, msg.cyclic, msg.cached)
	}
}

// =============================================================================
// TUI Host
// =============================================================================

// runWatchTUI runs the follower in the background and feeds its refreshes
// into a bubbletea program until the user quits or ctx is cancelled.
func runWatchTUI(ctx context.Context, follower *watch.Follower, r *refresher) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newWatchModel(follower.Path()), tea.WithAltScreen(), tea.WithContext(ctx))

	done := make(chan error, 1)
	go func() {
		done <- follower.Run(ctx, func(u watch.Update) {
			p.Send(r.refresh(ctx, u))
		})
	}()

	_, err := p.Run()
	interrupted := ctx.Err() != nil
	cancel()
	_ = follower.Close()
	<-done

	if err != nil && !interrupted {
		return fmt.Errorf("watch view: %w", err)
	}
	return nil
}
