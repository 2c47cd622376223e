package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var shellConfigCmd = &cobra.Command{
	Use:   "shell-config [bash|zsh|fish]",
	Short: "Emit a shell function that cd's into switched worktrees",
	Long: `Print a shell wrapper that makes 'warp <branch>' change the current
shell's directory. The wrapper runs warp in echo terminal mode and evals
the emitted cd command.

Add to your shell config:
  eval "$(warp shell-config zsh)"      # ~/.zshrc
  eval "$(warp shell-config bash)"     # ~/.bashrc
  warp shell-config fish | source      # ~/.config/fish/config.fish`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"bash", "zsh", "fish"},
	RunE:      runShellConfig,
}

func init() {
	rootCmd.AddCommand(shellConfigCmd)
}

// posixWrapper works for both bash and zsh.
const posixWrapper = `warp() {
    case "$1" in
        switch)
            shift
            local out
            out=$(command warp switch --terminal echo "$@") || return $?
            eval "$out"
            ;;
        ""|ls|list|cleanup|config|agents|hooks-install|hooks-remove|hooks-status|shell-config|help|--*)
            command warp "$@"
            ;;
        *)
            local out
            out=$(command warp switch --terminal echo "$@") || return $?
            eval "$out"
            ;;
    esac
}
`

const fishWrapper = `function warp
    switch "$argv[1]"
        case switch
            set -e argv[1]
            set out (command warp switch --terminal echo $argv); or return $status
            eval "$out"
        case '' ls list cleanup config agents hooks-install hooks-remove hooks-status shell-config help '--*'
            command warp $argv
        case '*'
            set out (command warp switch --terminal echo $argv); or return $status
            eval "$out"
    end
end
`

func runShellConfig(cmd *cobra.Command, args []string) error {
	shell := "bash"
	if len(args) == 1 {
		shell = args[0]
	}

	switch shell {
	case "bash", "zsh":
		fmt.Print(posixWrapper)
	case "fish":
		fmt.Print(fishWrapper)
	default:
		return fmt.Errorf("unsupported shell %q (want bash, zsh, or fish)", shell)
	}
	return nil
}
