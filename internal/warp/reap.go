package warp

import (
	"fmt"

	"github.com/Frank-III/git-warp/internal/gitx"
	"github.com/Frank-III/git-warp/internal/plan"
	"github.com/Frank-III/git-warp/internal/procscan"
)

// ItemResult is the outcome of executing one plan item. Items fail
// independently; one failure never aborts the rest of the reap.
type ItemResult struct {
	Item          plan.Item
	Removed       bool
	BranchDeleted bool
	Killed        map[int32]procscan.Outcome
	Err           error
}

// ReapReport is the full outcome of a reap.
type ReapReport struct {
	Plan    *plan.Plan
	Results []ItemResult
	DryRun  bool

	// FetchWarning records a failed pre-classification fetch. The reap
	// proceeds on possibly stale classification.
	FetchWarning error
}

// Reap removes worktrees matching policy, honoring the per-item safety
// decisions made by the planner. In dry-run mode the plan is returned
// without executing anything.
func (o *Orchestrator) Reap(policy plan.Policy, selection []string, flags plan.Flags) (*ReapReport, error) {
	report := &ReapReport{DryRun: o.DryRun}

	if o.Config.Git.AutoFetch && !o.DryRun {
		if err := o.Repo.Fetch(o.Config.Git.AutoPrune); err != nil {
			report.FetchWarning = err
		}
	}

	defaultBranch, err := o.Repo.DefaultBranch(o.Config.Git.DefaultBranch)
	if err != nil {
		return nil, err
	}

	if o.Config.Process.AutoKill {
		flags.Kill = true
	}

	var scanner plan.Scanner
	if o.Config.Process.CheckProcesses {
		scanner = procscan.Scan
	}

	p, err := plan.Build(o.Repo, scanner, defaultBranch, policy, selection, flags)
	if err != nil {
		return nil, err
	}
	report.Plan = p

	if o.DryRun {
		return report, nil
	}

	for _, item := range p.Items {
		result := ItemResult{Item: item}

		if item.Action == plan.ActionSkip {
			report.Results = append(report.Results, result)
			continue
		}

		// Processes rooted in the worktree die before its directory does.
		if len(item.Processes) > 0 && flags.Kill {
			pids := make([]int32, len(item.Processes))
			for i, proc := range item.Processes {
				pids[i] = proc.PID
			}
			result.Killed = procscan.Terminate(pids, o.Config.KillGrace())

			if survivors := stillAlive(result.Killed); len(survivors) > 0 {
				result.Err = fmt.Errorf("processes still alive after kill: %v", survivors)
				report.Results = append(report.Results, result)
				continue
			}
		}

		force := item.Action == plan.ActionForceRemove
		if err := o.Repo.RemoveWorktree(item.Worktree.Path, force); err != nil {
			result.Err = err
			report.Results = append(report.Results, result)
			continue
		}
		result.Removed = true

		if flags.PruneBranches && item.Worktree.Branch != "" {
			// A remoteless ref has no other copy, so -d would refuse;
			// removal of its worktree was already the point of no return.
			forceDelete := force || item.Classification == gitx.ClassRemoteless
			deleted, err := o.deleteBranchIfUnused(item.Worktree.Branch, forceDelete)
			if err != nil {
				result.Err = err
			}
			result.BranchDeleted = deleted
		}

		report.Results = append(report.Results, result)
	}

	if err := o.Repo.Prune(); err != nil {
		return report, fmt.Errorf("pruning worktree records: %w", err)
	}
	return report, nil
}

// deleteBranchIfUnused deletes branch unless some other worktree still
// has it checked out.
func (o *Orchestrator) deleteBranchIfUnused(branch string, force bool) (bool, error) {
	wt, err := o.Repo.WorktreeFor(branch)
	if err != nil {
		return false, err
	}
	if wt != nil {
		return false, nil
	}
	if err := o.Repo.DeleteBranch(branch, force); err != nil {
		return false, fmt.Errorf("deleting branch %s: %w", branch, err)
	}
	return true, nil
}

func stillAlive(outcomes map[int32]procscan.Outcome) []int32 {
	var alive []int32
	for pid, outcome := range outcomes {
		if outcome == procscan.StillAlive {
			alive = append(alive, pid)
		}
	}
	return alive
}
