// Package warp composes the cloner, rewriter, git gateway, process
// scanner, and cleanup planner into the two top-level operations:
// materialize (create-or-switch a worktree) and reap (cleanup).
//
// The orchestrator decides recovery and rollback; it never prints.
// Rendering plans, reports, and warnings belongs to the command layer.
package warp

import (
	"errors"

	"github.com/Frank-III/git-warp/internal/config"
	"github.com/Frank-III/git-warp/internal/gitx"
)

// ErrCancelled is returned when the user declines a confirmation.
// It maps to exit code 5.
var ErrCancelled = errors.New("cancelled by user")

// Method records how a worktree was (or would be) materialized.
type Method int

const (
	// MethodCoW is a copy-on-write clone followed by a path rewrite.
	MethodCoW Method = iota
	// MethodFallback is a plain git-driven checkout.
	MethodFallback
)

func (m Method) String() string {
	if m == MethodCoW {
		return "cow"
	}
	return "fallback"
}

// Orchestrator runs the lifecycle operations against one repository.
type Orchestrator struct {
	Repo   *gitx.Repo
	Config *config.Config

	// DryRun renders plans without any filesystem or git mutation.
	DryRun bool
}

// New builds an orchestrator for repo with cfg.
func New(repo *gitx.Repo, cfg *config.Config) *Orchestrator {
	return &Orchestrator{Repo: repo, Config: cfg}
}
