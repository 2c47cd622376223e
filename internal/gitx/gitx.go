// Package gitx wraps repository discovery and worktree mutation.
//
// Discovery and branch classification run on go-git for typed, in-process
// access. Worktree and branch mutation delegate to the git executable,
// whose worktree surface is the canonical one; stderr from a failed
// delegation is captured verbatim.
package gitx

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// Sentinel errors surfaced to callers. Delegated git failures whose stderr
// identifies one of these conditions unwrap to the matching sentinel.
var (
	ErrNotARepository    = errors.New("not in a git repository")
	ErrBranchCheckedOut  = errors.New("branch is already checked out in another worktree")
	ErrWorktreeDirty     = errors.New("worktree contains modified or untracked files")
	ErrPathInsidePrimary = errors.New("worktree path is inside the primary worktree")
)

// DelegationError is a git subprocess failure with its stderr captured
// verbatim. When the stderr matches a known condition, errors.Is also
// reports the corresponding sentinel.
type DelegationError struct {
	Args   []string
	Stderr string
	kind   error
}

func (e *DelegationError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = "git exited with an error"
	}
	return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), msg)
}

func (e *DelegationError) Unwrap() error { return e.kind }

// Repo is an open repository anchored at its primary worktree.
type Repo struct {
	repo      *gogit.Repository
	root      string // primary worktree directory, canonical
	commonDir string // shared metadata store, canonical
}

// Find locates the enclosing repository by ascending from the current
// directory.
func Find() (*Repo, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}
	return Open(cwd)
}

// Open opens the repository enclosing dir.
func Open(dir string) (*Repo, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, ErrNotARepository
		}
		return nil, fmt.Errorf("opening repository at %s: %w", dir, err)
	}

	r := &Repo{repo: repo}

	commonDir, err := r.git(dir, "rev-parse", "--git-common-dir")
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(commonDir) {
		commonDir = filepath.Join(dir, commonDir)
	}
	r.commonDir = canonical(commonDir)

	// The primary worktree is always listed first by git.
	out, err := r.git(dir, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	worktrees := parseWorktreePorcelain(out)
	if len(worktrees) == 0 {
		return nil, ErrNotARepository
	}
	r.root = worktrees[0].Path

	return r, nil
}

// Root returns the canonical path of the primary worktree.
func (r *Repo) Root() string { return r.root }

// CommonDir returns the canonical path of the shared metadata store.
func (r *Repo) CommonDir() string { return r.commonDir }

// git runs a delegated git command in dir, returning trimmed stdout.
func (r *Repo) git(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &DelegationError{
			Args:   args,
			Stderr: stderr.String(),
			kind:   classifyStderr(stderr.String()),
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}

// classifyStderr maps well-known git failure messages to sentinel errors.
func classifyStderr(stderr string) error {
	switch {
	case strings.Contains(stderr, "already checked out") ||
		strings.Contains(stderr, "already used by worktree"):
		return ErrBranchCheckedOut
	case strings.Contains(stderr, "contains modified or untracked files"):
		return ErrWorktreeDirty
	case strings.Contains(stderr, "not a git repository"):
		return ErrNotARepository
	}
	return nil
}

// canonical returns p absolute with symlinks resolved, so paths compare
// reliably across /tmp vs /private/tmp style aliases.
func canonical(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}
	return filepath.Clean(p)
}

// isWithin reports whether path is dir or a descendant of dir. Both
// arguments must already be canonical.
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
