package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/ruleflow/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The configuration file is loaded in PersistentPreRunE, so every subcommand
// sees c.Config with file values applied and can layer its flags on top.
// Commands that must work without a valid configuration (completion) skip
// the load.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "ruleflow draws rule-firing flow graphs from simulation traces",
		Long: `ruleflow reads the textual trace of a production-rule simulation and
draws which rule fired after which. Rules are grouped into tiers by the
order in which they first fired; repeated transitions that loop back are
drawn with curved edges.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			if cmd.Annotations[annotationSkipConfig] == "true" {
				return nil
			}
			if err := c.loadConfig(); err != nil {
				return err
			}
			c.Logger.Debug("loaded config", "path", c.configPath, "cache", c.Config.Cache.Backend)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/ruleflow/config.toml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// annotationSkipConfig marks commands that run without loading the config.
const annotationSkipConfig = "ruleflow/skip-config"
