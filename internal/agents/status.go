// Package agents reads and displays per-worktree agent activity.
//
// Claude Code hooks (see the hooks package) write a small status file at
// .claude/git-warp/status inside each worktree; this package collects
// those files across a repository's worktrees and renders them live.
package agents

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/Frank-III/git-warp/internal/gitx"
)

// Status is the JSON payload written by the hook commands.
type Status struct {
	Status       string    `json:"status"`
	LastActivity time.Time `json:"last_activity"`
}

// State is one worktree's agent activity snapshot.
type State struct {
	Worktree gitx.Worktree
	Status   string // idle when no status file exists
	LastSeen time.Time
}

// statusRelPath is where the hook commands write inside a worktree.
const statusRelPath = ".claude/git-warp/status"

// StatusPath returns the status file location for a worktree.
func StatusPath(worktree string) string {
	return filepath.Join(worktree, filepath.FromSlash(statusRelPath))
}

// ReadStatus loads the status file for one worktree. A missing or
// malformed file reads as idle.
func ReadStatus(worktree string) Status {
	data, err := os.ReadFile(StatusPath(worktree))
	if err != nil {
		return Status{Status: "idle"}
	}
	var s Status
	if err := json.Unmarshal(data, &s); err != nil || s.Status == "" {
		return Status{Status: "idle"}
	}
	return s
}

// Collect snapshots agent activity across every worktree of the repository.
func Collect(repo *gitx.Repo) ([]State, error) {
	worktrees, err := repo.ListWorktrees()
	if err != nil {
		return nil, err
	}

	states := make([]State, 0, len(worktrees))
	for _, wt := range worktrees {
		status := ReadStatus(wt.Path)
		states = append(states, State{
			Worktree: wt,
			Status:   status.Status,
			LastSeen: status.LastActivity,
		})
	}
	return states, nil
}
