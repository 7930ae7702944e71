package cli

import (
	"github.com/spf13/cobra"
)

// completionShells lists the shells cobra can generate completions for.
var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// completionCommand creates the completion command. Scripts go to the
// command's output so they can be redirected or captured.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for pfannkuchen.

Load it into the current shell:

  $ source <(pfannkuchen completion bash)
  $ pfannkuchen completion fish | source
  PS> pfannkuchen completion powershell | Out-String | Invoke-Expression

Or install it once for every new session:

  $ pfannkuchen completion bash > /etc/bash_completion.d/pfannkuchen
  $ pfannkuchen completion zsh > "${fpath[1]}/_pfannkuchen"
  $ pfannkuchen completion fish > ~/.config/fish/completions/pfannkuchen.fish

Zsh needs compinit enabled ("autoload -U compinit; compinit" in ~/.zshrc).
Completions cover subcommands and flags such as --block-count and --format.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
