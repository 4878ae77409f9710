package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for ruleflow.

To load completions:

Bash:
  $ source <(ruleflow completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ ruleflow completion bash > /etc/bash_completion.d/ruleflow
  # macOS:
  $ ruleflow completion bash > $(brew --prefix)/etc/bash_completion.d/ruleflow

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ ruleflow completion zsh > "${fpath[1]}/_ruleflow"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ ruleflow completion fish | source

  # To load completions for each session, execute once:
  $ ruleflow completion fish > ~/.config/fish/completions/ruleflow.fish

PowerShell:
  PS> ruleflow completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> ruleflow completion powershell > ruleflow.ps1
  # and source this file from your PowerShell profile.
`,
		Annotations:           map[string]string{annotationSkipConfig: "true"},
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(stdout, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(stdout)
			}
			return nil
		},
	}

	return cmd
}
