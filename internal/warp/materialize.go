package warp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Frank-III/git-warp/internal/cowclone"
	"github.com/Frank-III/git-warp/internal/gitx"
	"github.com/Frank-III/git-warp/internal/rewrite"
)

// MaterializeOpts adjusts a single materialize call.
type MaterializeOpts struct {
	// Path overrides the computed worktree location.
	Path string
	// NoCoW forces the fallback checkout even when CoW is available.
	NoCoW bool
	// BaseRef is the starting point for a branch freshly created by the
	// fallback checkout. Empty means the primary worktree's HEAD. The CoW
	// path always creates the branch from the primary worktree's HEAD.
	BaseRef string
}

// MaterializeResult reports what Materialize did (or, in dry-run mode,
// would do).
type MaterializeResult struct {
	Branch    string
	Path      string
	Method    Method
	WasSwitch bool

	// Planned is set in dry-run mode: nothing was mutated.
	Planned bool

	// RewriteStats is present on the CoW path. Per-file rewrite errors
	// are partial failures: the worktree is usable, the caller should
	// surface them as warnings.
	RewriteStats *rewrite.Stats
}

// Materialize produces a worktree for branch, creating it if needed.
// When a worktree for the branch already exists, its path is returned
// and nothing is touched.
func (o *Orchestrator) Materialize(branch string, opts MaterializeOpts) (*MaterializeResult, error) {
	if branch == "" {
		return nil, fmt.Errorf("branch name is required")
	}

	target, err := o.resolveTargetPath(branch, opts.Path)
	if err != nil {
		return nil, err
	}

	// Switch, not create: an existing worktree for the branch wins over
	// everything, including --path.
	existing, err := o.Repo.WorktreeFor(branch)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &MaterializeResult{
			Branch:    branch,
			Path:      existing.Path,
			WasSwitch: true,
		}, nil
	}

	method := MethodFallback
	if o.Config.UseCoW && !opts.NoCoW && cowclone.Supported(o.Repo.Root()) {
		method = MethodCoW
	}

	result := &MaterializeResult{Branch: branch, Path: target, Method: method}
	if o.DryRun {
		result.Planned = true
		return result, nil
	}

	branchExisted, err := o.Repo.BranchExists(branch)
	if err != nil {
		return nil, err
	}
	_, statErr := os.Lstat(target)
	targetExisted := statErr == nil

	if method == MethodCoW {
		err = o.materializeCoW(branch, target, result)
		// A probe can pass and the clone still refuse (e.g. the target
		// parent sits on another filesystem). Fall back rather than fail.
		if errors.Is(err, cowclone.ErrUnsupported) {
			result.Method = MethodFallback
			err = o.Repo.CreateWorktree(target, branch, opts.BaseRef)
		}
	} else {
		err = o.Repo.CreateWorktree(target, branch, opts.BaseRef)
	}

	if err != nil {
		return nil, o.rollback(branch, target, branchExisted, targetExisted, err)
	}
	return result, nil
}

// materializeCoW clones the primary, rewrites absolute paths, and
// registers the clone as a worktree.
func (o *Orchestrator) materializeCoW(branch, target string, result *MaterializeResult) error {
	primary := o.Repo.Root()

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("creating worktree parent: %w", err)
	}
	if err := cowclone.Clone(primary, target); err != nil {
		return err
	}

	// The tree must be consistent before git sees it.
	stats, err := rewrite.Rewrite(target, primary, target)
	if err != nil {
		return fmt.Errorf("rewriting paths: %w", err)
	}
	result.RewriteStats = &stats

	return o.Repo.RegisterExisting(target, branch)
}

// rollback undoes a partially materialized worktree. Its own failures are
// appended to the original error, never masking it.
func (o *Orchestrator) rollback(branch, target string, branchExisted, targetExisted bool, cause error) error {
	errs := []error{cause}

	// A directory that was already at target before this call is left alone.
	if _, statErr := os.Lstat(target); statErr == nil && !targetExisted {
		// Best effort: the directory may or may not have been registered.
		_ = o.Repo.RemoveWorktree(target, true)
		if rmErr := os.RemoveAll(target); rmErr != nil {
			errs = append(errs, fmt.Errorf("rollback: removing %s: %w", target, rmErr))
		}
		if pruneErr := o.Repo.Prune(); pruneErr != nil {
			errs = append(errs, fmt.Errorf("rollback: pruning worktrees: %w", pruneErr))
		}
	}

	if !branchExisted {
		if exists, err := o.Repo.BranchExists(branch); err == nil && exists {
			if delErr := o.Repo.DeleteBranch(branch, true); delErr != nil {
				errs = append(errs, fmt.Errorf("rollback: deleting branch %s: %w", branch, delErr))
			}
		}
	}

	return errors.Join(errs...)
}

// resolveTargetPath computes where the worktree for branch lives:
// the explicit override, the configured parent, or
// <parent of primary>/worktrees/<sanitized branch>.
func (o *Orchestrator) resolveTargetPath(branch, override string) (string, error) {
	if override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", fmt.Errorf("resolving path %s: %w", override, err)
		}
		return abs, nil
	}

	sanitized := SanitizeBranch(branch)
	if sanitized == "" {
		return "", fmt.Errorf("branch name %q sanitizes to nothing usable", branch)
	}

	parent := o.Config.WorktreesPath
	if parent == "" {
		parent = filepath.Join(filepath.Dir(o.Repo.Root()), "worktrees")
	}
	target := filepath.Join(parent, sanitized)

	if target == o.Repo.Root() {
		return "", fmt.Errorf("%w: %s", gitx.ErrPathInsidePrimary, target)
	}
	return target, nil
}
