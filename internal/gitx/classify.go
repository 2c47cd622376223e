package gitx

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// Classification buckets a local branch for cleanup decisions.
type Classification int

const (
	// ClassActive is any branch that is neither merged, remoteless, nor primary.
	ClassActive Classification = iota
	// ClassMerged means the branch tip is an ancestor of the default branch.
	ClassMerged
	// ClassRemoteless means the branch has no upstream and no matching remote ref.
	ClassRemoteless
	// ClassPrimary is the repository's default branch, which is protected.
	ClassPrimary
)

func (c Classification) String() string {
	switch c {
	case ClassMerged:
		return "merged"
	case ClassRemoteless:
		return "remoteless"
	case ClassPrimary:
		return "primary"
	default:
		return "active"
	}
}

// BranchInfo carries the raw classification facts for one local branch.
// Merged and Remoteless can both hold; Class and ClassPreferring pick the
// reported bucket.
type BranchInfo struct {
	Name       string
	Merged     bool
	Remoteless bool
	Primary    bool
}

// Class reports the branch's bucket with the default precedence
// primary > merged > remoteless > active.
func (b BranchInfo) Class() Classification {
	return b.ClassPreferring(ClassMerged)
}

// ClassPreferring is Class, but when the branch is both merged and
// remoteless the preferred bucket wins. Cleanup counts a doubly-matching
// branch under the requested policy's class first.
func (b BranchInfo) ClassPreferring(preferred Classification) Classification {
	switch {
	case b.Primary:
		return ClassPrimary
	case b.Merged && b.Remoteless:
		if preferred == ClassRemoteless {
			return ClassRemoteless
		}
		return ClassMerged
	case b.Merged:
		return ClassMerged
	case b.Remoteless:
		return ClassRemoteless
	default:
		return ClassActive
	}
}

// ClassifyBranches classifies every local branch against defaultBranch.
// The merged test is commit ancestry; the remoteless test requires both
// no configured upstream and no matching ref on any remote.
func (r *Repo) ClassifyBranches(defaultBranch string) (map[string]BranchInfo, error) {
	defaultRef, err := r.repo.Reference(plumbing.NewBranchReferenceName(defaultBranch), true)
	if err != nil {
		return nil, fmt.Errorf("resolving default branch %s: %w", defaultBranch, err)
	}
	defaultTip, err := r.repo.CommitObject(defaultRef.Hash())
	if err != nil {
		return nil, fmt.Errorf("reading default branch tip: %w", err)
	}

	remoteNames, err := r.remoteBranchNames()
	if err != nil {
		return nil, err
	}

	cfg, err := r.repo.Config()
	if err != nil {
		return nil, fmt.Errorf("reading repository config: %w", err)
	}

	branches, err := r.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}

	result := make(map[string]BranchInfo)
	err = branches.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		info := BranchInfo{Name: name}

		if name == defaultBranch {
			info.Primary = true
			result[name] = info
			return nil
		}

		tip, err := r.repo.CommitObject(ref.Hash())
		if err != nil {
			return fmt.Errorf("reading tip of %s: %w", name, err)
		}
		merged, err := tip.IsAncestor(defaultTip)
		if err != nil {
			return fmt.Errorf("ancestry check for %s: %w", name, err)
		}
		info.Merged = merged

		hasUpstream := false
		if bc, ok := cfg.Branches[name]; ok && bc.Remote != "" {
			hasUpstream = true
		}
		info.Remoteless = !hasUpstream && !remoteNames[name]

		result[name] = info
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// remoteBranchNames collects the short branch names present on any remote.
func (r *Repo) remoteBranchNames() (map[string]bool, error) {
	refs, err := r.repo.References()
	if err != nil {
		return nil, fmt.Errorf("listing references: %w", err)
	}

	names := make(map[string]bool)
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if !ref.Name().IsRemote() {
			return nil
		}
		// refs/remotes/<remote>/<branch...>
		rest := strings.TrimPrefix(ref.Name().String(), "refs/remotes/")
		_, branch, ok := strings.Cut(rest, "/")
		if !ok || branch == "HEAD" {
			return nil
		}
		names[branch] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// BranchExists reports whether a local branch named name exists.
func (r *Repo) BranchExists(name string) (bool, error) {
	_, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), false)
	if err == nil {
		return true, nil
	}
	if err == plumbing.ErrReferenceNotFound {
		return false, nil
	}
	return false, fmt.Errorf("looking up branch %s: %w", name, err)
}

// HeadCommit returns the hash the primary worktree's HEAD points at.
func (r *Repo) HeadCommit() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// DefaultBranch resolves the branch merged-ness is judged against:
// the configured name when set, otherwise origin/HEAD, otherwise main
// then master.
func (r *Repo) DefaultBranch(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	if ref, err := r.repo.Reference(plumbing.ReferenceName("refs/remotes/origin/HEAD"), true); err == nil {
		name := strings.TrimPrefix(ref.Name().String(), "refs/remotes/origin/")
		if name != "" && name != ref.Name().String() {
			return name, nil
		}
	}

	for _, candidate := range []string{"main", "master"} {
		exists, err := r.BranchExists(candidate)
		if err != nil {
			return "", err
		}
		if exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not determine the default branch; set git.default_branch")
}
