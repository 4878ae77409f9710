package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ruleflow/pkg/pipeline"
	"github.com/matzehuels/ruleflow/pkg/source"
)

// renderCommand creates the render command: trace in, flow graph files out.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags  renderFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "render [trace]",
		Short: "Draw the rule-firing flow graph of a trace",
		Long: `Draw the rule-firing flow graph of a trace.

Every "*** Fire: <rule>" line of the trace is a firing. Rules are grouped
into tiers in the order they first fired and every transition between
consecutive firings becomes an edge. Graphs with cycles are drawn with
curved edges.

Use "-" to read the trace from stdin. Results are cached, so rendering an
unchanged trace again is instant.

Examples:
  ruleflow render run.log                    # writes run.svg
  ruleflow render run.log -f svg,json        # writes run.svg and run.json
  ruleflow render run.log -f dot -o -        # DOT on stdout
  ruleflow render run.log --renderer external --direction TB`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.baseOptions()
			flags.apply(cmd, &opts)
			opts.Source = args[0]
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], output, opts, flags.noCache)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format), base path (multiple) or - for stdout")

	return cmd
}

// runRender reads the trace, runs the pipeline and writes the artifacts.
func (c *CLI) runRender(ctx context.Context, input, output string, opts pipeline.Options, noCache bool) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	text, err := source.ReadFile(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache, "")
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering flow graph...")
	spinner.Start()

	result, err := runner.Execute(ctx, text, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		if result != nil && result.State != nil {
			// The trace parsed; only drawing failed.
			printDetail("%s", result.State.Summary())
		}
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	written, err := writeArtifacts(result.Artifacts, opts.Formats, input, output)
	if err != nil {
		return err
	}
	if output == "-" {
		return nil
	}

	prog.done(fmt.Sprintf("Rendered %d output(s)", len(written)))
	printSuccess("%s", result.State.Summary())
	for _, path := range written {
		printFile(path)
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.Stats.Cyclic, result.CacheInfo.RenderHit)
	if result.State.IsEmpty() {
		printWarning("no \"*** Fire:\" lines found in %s", input)
	} else if input != source.Stdin {
		printNextStep("Inspect the tiers", appName+" inspect "+input)
	}

	return nil
}
