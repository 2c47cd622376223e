package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Frank-III/git-warp/internal/agents"
	"github.com/Frank-III/git-warp/internal/gitx"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Live dashboard of agent activity across worktrees",
	Long: `Show a live table of every worktree and what its Claude Code agent
is doing, fed by the status files the warp hooks write. Install the hooks
first with 'warp hooks-install'.`,
	RunE: runAgents,
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}

func runAgents(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Agent.Enabled {
		return fmt.Errorf("agent dashboard is disabled in config (agent.enabled = false)")
	}

	repo, err := gitx.Find()
	if err != nil {
		return err
	}

	refresh := time.Duration(cfg.Agent.RefreshRate) * time.Millisecond
	if refresh <= 0 {
		refresh = time.Second
	}
	return agents.NewDashboard(repo, refresh).Run()
}
