package gitx

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Worktree is one entry from the repository's worktree index.
type Worktree struct {
	Path       string
	Branch     string // short name; empty when detached
	Head       string
	IsPrimary  bool
	IsDetached bool
	IsLocked   bool
	IsPrunable bool
}

// ListWorktrees returns every worktree registered with the repository,
// paths canonicalized. The primary worktree is always first.
func (r *Repo) ListWorktrees() ([]Worktree, error) {
	out, err := r.git(r.root, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parseWorktreePorcelain(out), nil
}

// WorktreeFor returns the worktree holding branch, if any.
func (r *Repo) WorktreeFor(branch string) (*Worktree, error) {
	worktrees, err := r.ListWorktrees()
	if err != nil {
		return nil, err
	}
	for i := range worktrees {
		if worktrees[i].Branch == branch {
			return &worktrees[i], nil
		}
	}
	return nil, nil
}

// parseWorktreePorcelain parses `git worktree list --porcelain` output.
// Records are blank-line separated; the first record is the primary.
func parseWorktreePorcelain(out string) []Worktree {
	var worktrees []Worktree
	var current *Worktree

	flush := func() {
		if current != nil {
			worktrees = append(worktrees, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			flush()
			continue
		}
		key, value, _ := strings.Cut(line, " ")
		switch key {
		case "worktree":
			flush()
			current = &Worktree{Path: canonical(value)}
		case "HEAD":
			if current != nil {
				current.Head = value
			}
		case "branch":
			if current != nil {
				current.Branch = strings.TrimPrefix(value, "refs/heads/")
			}
		case "detached":
			if current != nil {
				current.IsDetached = true
			}
		case "locked":
			if current != nil {
				current.IsLocked = true
			}
		case "prunable":
			if current != nil {
				current.IsPrunable = true
			}
		}
	}
	flush()

	if len(worktrees) > 0 {
		worktrees[0].IsPrimary = true
	}
	return worktrees
}

// CreateWorktree registers path as a new worktree holding branch,
// creating the branch from baseRef (or HEAD) when it does not exist yet.
func (r *Repo) CreateWorktree(path, branch, baseRef string) error {
	path = canonical(path)
	if isWithin(path, r.root) {
		return fmt.Errorf("%w: %s", ErrPathInsidePrimary, path)
	}

	exists, err := r.BranchExists(branch)
	if err != nil {
		return err
	}
	if !exists {
		if baseRef == "" {
			baseRef = "HEAD"
		}
		if _, err := r.git(r.root, "branch", branch, baseRef); err != nil {
			return fmt.Errorf("creating branch %s: %w", branch, err)
		}
	}

	if _, err := r.git(r.root, "worktree", "add", path, branch); err != nil {
		return err
	}
	return nil
}

// RegisterExisting tells git that path — a prior copy-on-write clone of
// the primary worktree — is now a worktree holding branch, without
// recopying any files.
//
// The registration is obtained from git itself: a detached, no-checkout
// worktree is added at a scratch path, its .git pointer file is moved
// onto the clone, and the clone's HEAD and index are then pointed at the
// branch. The working tree files are never touched, so CoW sharing
// survives.
func (r *Repo) RegisterExisting(path, branch string) error {
	path = canonical(path)
	if isWithin(path, r.root) {
		return fmt.Errorf("%w: %s", ErrPathInsidePrimary, path)
	}

	if wt, err := r.WorktreeFor(branch); err != nil {
		return err
	} else if wt != nil {
		return fmt.Errorf("%w: %s at %s", ErrBranchCheckedOut, branch, wt.Path)
	}

	exists, err := r.BranchExists(branch)
	if err != nil {
		return err
	}
	if !exists {
		if _, err := r.git(r.root, "branch", branch); err != nil {
			return fmt.Errorf("creating branch %s: %w", branch, err)
		}
	}

	// The clone carries the primary's full .git directory; it has to go
	// before the worktree pointer file takes its place.
	cloneGit := filepath.Join(path, ".git")
	if err := os.RemoveAll(cloneGit); err != nil {
		return fmt.Errorf("removing cloned .git: %w", err)
	}

	scratch := path + ".reg"
	defer os.RemoveAll(scratch)
	if _, err := r.git(r.root, "worktree", "add", "--detach", "--no-checkout", scratch); err != nil {
		return err
	}
	if err := os.Rename(filepath.Join(scratch, ".git"), cloneGit); err != nil {
		return fmt.Errorf("moving worktree pointer: %w", err)
	}
	if err := os.Remove(scratch); err != nil {
		return fmt.Errorf("removing scratch directory: %w", err)
	}
	if _, err := r.git(r.root, "worktree", "repair", path); err != nil {
		return err
	}

	// Attach HEAD to the branch and rebuild the index from its tip. The
	// clone's files already match the tip, so nothing is checked out.
	if _, err := r.git(path, "symbolic-ref", "HEAD", "refs/heads/"+branch); err != nil {
		return err
	}
	if _, err := r.git(path, "reset", "-q"); err != nil {
		return err
	}
	return nil
}

// RemoveWorktree de-registers path and deletes its directory. force
// permits removal of dirty worktrees.
func (r *Repo) RemoveWorktree(path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	_, err := r.git(r.root, args...)
	return err
}

// Prune drops stale worktree records whose directories no longer exist.
func (r *Repo) Prune() error {
	_, err := r.git(r.root, "worktree", "prune")
	return err
}

// DeleteBranch deletes the local ref. force uses -D.
func (r *Repo) DeleteBranch(branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := r.git(r.root, "branch", flag, branch)
	return err
}

// IsDirty reports whether the worktree at path has uncommitted changes
// or untracked files.
func (r *Repo) IsDirty(path string) (bool, error) {
	out, err := r.git(path, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// Fetch updates remote refs, optionally pruning deleted ones.
func (r *Repo) Fetch(prune bool) error {
	args := []string{"fetch", "--all"}
	if prune {
		args = append(args, "--prune")
	}
	_, err := r.git(r.root, args...)
	return err
}
