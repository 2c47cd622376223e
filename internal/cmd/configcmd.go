package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Frank-III/git-warp/internal/config"
	"github.com/Frank-III/git-warp/internal/style"
)

var (
	configShow bool
	configEdit bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create warp configuration",
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configShow, "show", false, "Show the merged configuration")
	configCmd.Flags().BoolVar(&configEdit, "edit", false, "Print a sample config and offer to create one")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	switch {
	case configShow:
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n\n", style.Bold.Render("Config file:"), style.Path.Render(path))
		fmt.Printf("terminal_mode  = %s\n", cfg.TerminalMode)
		fmt.Printf("use_cow        = %v\n", cfg.UseCoW)
		fmt.Printf("auto_confirm   = %v\n", cfg.AutoConfirm)
		if cfg.WorktreesPath != "" {
			fmt.Printf("worktrees_path = %s\n", cfg.WorktreesPath)
		}
		fmt.Printf("\n%s\n", style.Bold.Render("[git]"))
		fmt.Printf("default_branch = %q\n", cfg.Git.DefaultBranch)
		fmt.Printf("auto_fetch     = %v\n", cfg.Git.AutoFetch)
		fmt.Printf("auto_prune     = %v\n", cfg.Git.AutoPrune)
		fmt.Printf("\n%s\n", style.Bold.Render("[process]"))
		fmt.Printf("check_processes = %v\n", cfg.Process.CheckProcesses)
		fmt.Printf("auto_kill       = %v\n", cfg.Process.AutoKill)
		fmt.Printf("kill_timeout    = %ds\n", cfg.Process.KillTimeout)
		fmt.Printf("\n%s\n", style.Bold.Render("[terminal]"))
		fmt.Printf("app           = %s\n", cfg.Terminal.App)
		fmt.Printf("auto_activate = %v\n", cfg.Terminal.AutoActivate)
		fmt.Printf("\n%s\n", style.Bold.Render("[agent]"))
		fmt.Printf("enabled      = %v\n", cfg.Agent.Enabled)
		fmt.Printf("refresh_rate = %dms\n", cfg.Agent.RefreshRate)
		fmt.Printf("claude_hooks = %v\n", cfg.Agent.ClaudeHooks)
		return nil

	case configEdit:
		fmt.Print(config.Sample)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			ok, err := confirm(fmt.Sprintf("No config file yet. Create %s with defaults?", path))
			if err != nil || !ok {
				return nil
			}
			if err := config.Default().SaveTo(path); err != nil {
				return err
			}
			fmt.Printf("%s Created %s\n", style.OK(), style.Path.Render(path))
		}
		return nil
	}

	fmt.Printf("%s %s\n\n", style.Bold.Render("Config file:"), style.Path.Render(path))
	fmt.Println("  warp config --show   Show the merged configuration")
	fmt.Println("  warp config --edit   Print a sample configuration")
	fmt.Println()
	fmt.Println("Environment overrides use the WARP_ prefix, e.g.:")
	fmt.Println("  WARP_TERMINAL_MODE=window")
	fmt.Println("  WARP_USE_COW=false")
	fmt.Println("  WARP_AUTO_CONFIRM=true")
	return nil
}
