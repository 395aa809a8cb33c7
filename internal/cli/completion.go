package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for irscope.

To load completions:

Bash:
  $ source <(irscope completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ irscope completion bash > /etc/bash_completion.d/irscope
  # macOS:
  $ irscope completion bash > $(brew --prefix)/etc/bash_completion.d/irscope

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ irscope completion zsh > "${fpath[1]}/_irscope"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ irscope completion fish | source

  # To load completions for each session, execute once:
  $ irscope completion fish > ~/.config/fish/completions/irscope.fish

PowerShell:
  PS> irscope completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> irscope completion powershell > irscope.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}
