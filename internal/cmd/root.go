// Package cmd defines the warp command-line interface.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Frank-III/git-warp/internal/config"
	"github.com/Frank-III/git-warp/internal/gitx"
	"github.com/Frank-III/git-warp/internal/warp"
)

var (
	flagDryRun      bool
	flagDebug       bool
	flagAutoConfirm bool
	flagTerminal    string
)

var rootCmd = &cobra.Command{
	Use:   "warp [branch]",
	Short: "Git worktree manager with copy-on-write speed",
	Long: `warp materializes Git worktrees instantly on copy-on-write
filesystems and manages their whole lifecycle: creation, listing, and
safe cleanup with live-process checks.

Running warp with a bare branch name is shorthand for 'warp switch'.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return runSwitch(cmd, args)
		}
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "Show what would be done without executing")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().BoolVarP(&flagAutoConfirm, "auto-confirm", "y", false, "Skip confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&flagTerminal, "terminal", "", "Terminal mode: tab, window, inplace, echo")
}

// Execute runs the CLI and returns the error for exit-code mapping.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an error from Execute to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, gitx.ErrNotARepository):
		return 3
	case errors.Is(err, gitx.ErrBranchCheckedOut), errors.Is(err, gitx.ErrWorktreeDirty):
		return 4
	case errors.Is(err, warp.ErrCancelled):
		return 5
	case isUsageError(err):
		return 2
	}
	return 1
}

// isUsageError recognizes cobra's argument and flag parse failures, which
// cobra surfaces as plain errors.
func isUsageError(err error) bool {
	msg := err.Error()
	for _, marker := range []string{
		"unknown command", "unknown flag", "unknown shorthand flag",
		"invalid argument", "accepts at most", "requires at least",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// loadConfig merges the config file, environment, and global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagAutoConfirm {
		cfg.AutoConfirm = true
	}
	if flagTerminal != "" {
		cfg.TerminalMode = flagTerminal
	}
	return cfg, nil
}

// newOrchestrator opens the enclosing repository and wires it up.
func newOrchestrator() (*warp.Orchestrator, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	repo, err := gitx.Find()
	if err != nil {
		return nil, err
	}
	o := warp.New(repo, cfg)
	o.DryRun = flagDryRun
	return o, nil
}

func debugf(format string, args ...any) {
	if flagDebug {
		fmt.Fprintf(os.Stderr, "debug: "+format+"\n", args...)
	}
}
