// Package plan computes cleanup plans over a repository's worktrees.
//
// A plan is a deterministic, ordered list of removals with per-item safety
// decisions already made. Executing it is the orchestrator's job; building
// it mutates nothing.
package plan

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Frank-III/git-warp/internal/gitx"
	"github.com/Frank-III/git-warp/internal/procscan"
)

// ErrPrimaryInPlan signals an internal invariant violation: the primary
// worktree reached the candidate stage. It is a bug, not a user error.
var ErrPrimaryInPlan = errors.New("internal: primary worktree selected for cleanup")

// Policy selects which worktrees become removal candidates.
type Policy int

const (
	PolicyMerged Policy = iota
	PolicyRemoteless
	PolicyAll
	PolicyInteractive
)

func (p Policy) String() string {
	switch p {
	case PolicyMerged:
		return "merged"
	case PolicyRemoteless:
		return "remoteless"
	case PolicyAll:
		return "all"
	default:
		return "interactive"
	}
}

// ParsePolicy maps a --mode value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "merged":
		return PolicyMerged, nil
	case "remoteless":
		return PolicyRemoteless, nil
	case "all":
		return PolicyAll, nil
	case "interactive":
		return PolicyInteractive, nil
	}
	return 0, fmt.Errorf("unknown cleanup mode %q (want merged, remoteless, all, or interactive)", s)
}

// Action is the decision recorded for one candidate.
type Action int

const (
	ActionSkip Action = iota
	ActionRemove
	ActionForceRemove
)

func (a Action) String() string {
	switch a {
	case ActionRemove:
		return "remove"
	case ActionForceRemove:
		return "force-remove"
	default:
		return "skip"
	}
}

// SkipReason explains an ActionSkip.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipProcesses
	SkipDirty
)

func (r SkipReason) String() string {
	switch r {
	case SkipProcesses:
		return "live processes"
	case SkipDirty:
		return "uncommitted changes"
	default:
		return ""
	}
}

// Flags are the cross-cutting cleanup switches.
type Flags struct {
	// Force removes dirty worktrees and ignores live processes.
	Force bool
	// Kill authorizes terminating live processes before removal.
	Kill bool
	// PruneBranches also deletes the local ref after a successful removal.
	PruneBranches bool
}

// Item is one planned removal.
type Item struct {
	Worktree       gitx.Worktree
	Classification gitx.Classification
	Processes      []procscan.Process
	ScanTruncated  bool
	Dirty          bool
	Action         Action
	Reason         SkipReason
}

// Summary aggregates a plan for display.
type Summary struct {
	PerAction map[Action]int
	PerClass  map[gitx.Classification]int
	Processes []procscan.Process
}

// Plan is the ordered removal list plus its summary.
type Plan struct {
	Policy  Policy
	Flags   Flags
	Items   []Item
	Summary Summary
}

// GitState is the slice of the git gateway the planner reads.
type GitState interface {
	ListWorktrees() ([]gitx.Worktree, error)
	ClassifyBranches(defaultBranch string) (map[string]gitx.BranchInfo, error)
	IsDirty(path string) (bool, error)
}

// Scanner is the process scan dependency. A nil Scanner disables process
// checks entirely.
type Scanner func(path string) (procscan.Result, error)

// Build computes the cleanup plan. selection is only consulted for
// PolicyInteractive and holds branch names; it is filtered to non-primary
// worktrees regardless of content.
func Build(git GitState, scan Scanner, defaultBranch string, policy Policy, selection []string, flags Flags) (*Plan, error) {
	worktrees, err := git.ListWorktrees()
	if err != nil {
		return nil, fmt.Errorf("listing worktrees: %w", err)
	}
	infos, err := git.ClassifyBranches(defaultBranch)
	if err != nil {
		return nil, fmt.Errorf("classifying branches: %w", err)
	}

	selected := make(map[string]bool, len(selection))
	for _, branch := range selection {
		selected[branch] = true
	}

	preferred := gitx.ClassMerged
	if policy == PolicyRemoteless {
		preferred = gitx.ClassRemoteless
	}

	p := &Plan{
		Policy: policy,
		Flags:  flags,
		Summary: Summary{
			PerAction: make(map[Action]int),
			PerClass:  make(map[gitx.Classification]int),
		},
	}

	for _, wt := range worktrees {
		if wt.IsPrimary {
			continue
		}

		info := infos[wt.Branch]
		if info.Primary {
			// The default branch checked out in a secondary worktree is
			// still protected.
			continue
		}

		include := false
		switch policy {
		case PolicyMerged:
			include = info.Merged
		case PolicyRemoteless:
			include = info.Remoteless
		case PolicyAll:
			include = true
		case PolicyInteractive:
			include = selected[wt.Branch]
		}
		if !include {
			continue
		}

		item := Item{
			Worktree:       wt,
			Classification: info.ClassPreferring(preferred),
		}
		if item.Classification == gitx.ClassPrimary {
			return nil, fmt.Errorf("%w: %s", ErrPrimaryInPlan, wt.Path)
		}

		if scan != nil {
			result, err := scan(wt.Path)
			if err != nil {
				return nil, fmt.Errorf("scanning %s: %w", wt.Path, err)
			}
			item.Processes = result.Processes
			item.ScanTruncated = result.Truncated
		}

		dirty, err := git.IsDirty(wt.Path)
		if err != nil {
			return nil, fmt.Errorf("checking %s: %w", wt.Path, err)
		}
		item.Dirty = dirty

		item.Action, item.Reason = decide(item, flags)
		p.Items = append(p.Items, item)
	}

	sort.Slice(p.Items, func(i, j int) bool {
		return p.Items[i].Worktree.Path < p.Items[j].Worktree.Path
	})

	for _, item := range p.Items {
		p.Summary.PerAction[item.Action]++
		p.Summary.PerClass[item.Classification]++
		p.Summary.Processes = append(p.Summary.Processes, item.Processes...)
	}
	return p, nil
}

// decide applies the safety predicates to one candidate.
func decide(item Item, flags Flags) (Action, SkipReason) {
	hasProcs := len(item.Processes) > 0

	if hasProcs && !flags.Force && !flags.Kill {
		return ActionSkip, SkipProcesses
	}
	if item.Dirty && !flags.Force {
		return ActionSkip, SkipDirty
	}
	if flags.Force || (hasProcs && flags.Kill) {
		return ActionForceRemove, SkipNone
	}
	return ActionRemove, SkipNone
}
