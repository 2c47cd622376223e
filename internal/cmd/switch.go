package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Frank-III/git-warp/internal/style"
	"github.com/Frank-III/git-warp/internal/terminal"
	"github.com/Frank-III/git-warp/internal/warp"
)

var (
	switchPath  string
	switchNoCoW bool
)

var switchCmd = &cobra.Command{
	Use:   "switch <branch>",
	Short: "Create or switch to a worktree for a branch",
	Long: `Create a worktree for the branch, or switch to it if one already
exists. On APFS the worktree is materialized as a copy-on-write clone of
the primary worktree and absolute paths inside it are rewritten, so even
huge repositories open instantly.

Examples:
  warp switch feat/login
  warp feat/login                  # same thing
  warp switch hotfix --no-cow      # force a plain checkout
  warp switch demo --path /tmp/demo`,
	Args: cobra.ExactArgs(1),
	RunE: runSwitch,
}

func init() {
	switchCmd.Flags().StringVar(&switchPath, "path", "", "Custom worktree path")
	switchCmd.Flags().BoolVar(&switchNoCoW, "no-cow", false, "Skip copy-on-write, use a plain checkout")
	rootCmd.AddCommand(switchCmd)
}

func runSwitch(cmd *cobra.Command, args []string) error {
	branch := args[0]

	o, err := newOrchestrator()
	if err != nil {
		return err
	}

	mode, err := terminal.ParseMode(o.Config.TerminalMode)
	if err != nil {
		return err
	}

	result, err := o.Materialize(branch, warp.MaterializeOpts{
		Path:  switchPath,
		NoCoW: switchNoCoW,
	})
	if err != nil {
		return err
	}

	if result.Planned {
		fmt.Printf("%s Would create worktree for %s at %s\n",
			style.Step(), style.Branch.Render(branch), style.Path.Render(result.Path))
		if result.Method == warp.MethodCoW {
			fmt.Printf("%s Would clone copy-on-write and rewrite paths\n", style.Step())
		} else {
			fmt.Printf("%s Would use a git checkout\n", style.Step())
		}
		return nil
	}

	// Echo mode feeds a shell wrapper; keep stdout to the cd line only.
	if mode != terminal.ModeEcho {
		if result.WasSwitch {
			fmt.Printf("%s Worktree for %s already at %s\n",
				style.OK(), style.Branch.Render(branch), style.Path.Render(result.Path))
		} else if result.Method == warp.MethodCoW {
			fmt.Printf("%s Created worktree for %s at %s %s\n",
				style.OK(), style.Branch.Render(branch), style.Path.Render(result.Path),
				style.Dim.Render("(cow)"))
		} else {
			fmt.Printf("%s Created worktree for %s at %s\n",
				style.OK(), style.Branch.Render(branch), style.Path.Render(result.Path))
		}

		if stats := result.RewriteStats; stats != nil {
			debugf("rewrite: %d scanned, %d rewritten, %d skipped",
				stats.FilesScanned, stats.FilesRewritten, stats.FilesSkipped)
			if len(stats.Errors) > 0 {
				fmt.Printf("%s %d files could not be rewritten\n", style.Warn(), len(stats.Errors))
				for _, fe := range stats.Errors {
					debugf("rewrite error: %v", fe)
				}
			}
		}
	}

	initCommands := o.Config.Terminal.InitCommands
	if result.WasSwitch {
		initCommands = nil
	}
	if err := terminal.Open(mode, result.Path, o.Config.Terminal.App, initCommands, os.Stdout); err != nil {
		fmt.Printf("%s Terminal hand-off failed: %v\n", style.Warn(), err)
		fmt.Printf("%s Run: cd %s\n", style.Step(), result.Path)
	}
	return nil
}
