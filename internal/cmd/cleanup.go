package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Frank-III/git-warp/internal/gitx"
	"github.com/Frank-III/git-warp/internal/plan"
	"github.com/Frank-III/git-warp/internal/style"
	"github.com/Frank-III/git-warp/internal/warp"
)

var (
	cleanupMode          string
	cleanupForce         bool
	cleanupKill          bool
	cleanupPruneBranches bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove worktrees whose branches are done",
	Long: `Remove worktrees according to a selection policy:

  merged      branches whose tip is an ancestor of the default branch
  remoteless  branches with no upstream and no remote ref
  all         every non-primary worktree
  interactive pick worktrees from a list

Worktrees with uncommitted changes are skipped unless --force is given,
and worktrees with live processes rooted inside them are skipped unless
--kill (terminate them) or --force (ignore them) is given.`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().StringVar(&cleanupMode, "mode", "merged", "Cleanup mode: merged, remoteless, all, interactive")
	cleanupCmd.Flags().BoolVar(&cleanupForce, "force", false, "Remove despite uncommitted changes or live processes")
	cleanupCmd.Flags().BoolVar(&cleanupKill, "kill", false, "Terminate live processes before removal")
	cleanupCmd.Flags().BoolVar(&cleanupPruneBranches, "prune-branches", true, "Also delete the local branch after removal")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	policy, err := plan.ParsePolicy(cleanupMode)
	if err != nil {
		return err
	}

	o, err := newOrchestrator()
	if err != nil {
		return err
	}

	flags := plan.Flags{
		Force:         cleanupForce,
		Kill:          cleanupKill,
		PruneBranches: cleanupPruneBranches,
	}

	var selection []string
	if policy == plan.PolicyInteractive {
		selection, err = selectWorktrees(o.Repo)
		if err != nil {
			return err
		}
		if len(selection) == 0 {
			fmt.Printf("%s Nothing selected\n", style.Dim.Render("∅"))
			return nil
		}
	}

	// Always plan first so the user confirms what will actually happen.
	preview := *o
	preview.DryRun = true
	previewReport, err := preview.Reap(policy, selection, flags)
	if err != nil {
		return err
	}
	if len(previewReport.Plan.Items) == 0 {
		fmt.Printf("%s No worktrees match cleanup mode %s\n", style.OK(), policy)
		return nil
	}

	printPlan(previewReport.Plan)
	if o.DryRun {
		return nil
	}

	if !o.Config.AutoConfirm {
		ok, err := confirm(fmt.Sprintf("Remove %d worktrees?", executable(previewReport.Plan)))
		if err != nil {
			return err
		}
		if !ok {
			return warp.ErrCancelled
		}
	}

	report, err := o.Reap(policy, selection, flags)
	if err != nil {
		return err
	}
	printReport(report)
	return nil
}

// selectWorktrees shows the interactive picker and returns branch names.
func selectWorktrees(repo *gitx.Repo) ([]string, error) {
	worktrees, err := repo.ListWorktrees()
	if err != nil {
		return nil, err
	}

	var options []huh.Option[string]
	for _, wt := range worktrees {
		if wt.IsPrimary || wt.Branch == "" {
			continue
		}
		label := fmt.Sprintf("%s  %s", wt.Branch, style.Dim.Render(wt.Path))
		options = append(options, huh.NewOption(label, wt.Branch))
	}
	if len(options) == 0 {
		return nil, nil
	}

	var selected []string
	form := huh.NewForm(huh.NewGroup(
		huh.NewMultiSelect[string]().
			Title("Select worktrees to remove").
			Options(options...).
			Value(&selected),
	))
	if err := form.Run(); err != nil {
		if err == huh.ErrUserAborted {
			return nil, warp.ErrCancelled
		}
		return nil, err
	}
	return selected, nil
}

func printPlan(p *plan.Plan) {
	fmt.Printf("%s Cleanup plan (%s):\n", style.Bold.Render("Plan"), p.Policy)
	for _, item := range p.Items {
		switch item.Action {
		case plan.ActionSkip:
			fmt.Printf("  %s %s %s %s\n", style.Warn(),
				style.Branch.Render(item.Worktree.Branch),
				style.Dim.Render("skip:"), item.Reason)
		case plan.ActionForceRemove:
			fmt.Printf("  %s %s %s %s\n", style.Fail(),
				style.Branch.Render(item.Worktree.Branch),
				style.Dim.Render("force-remove"),
				style.Path.Render(item.Worktree.Path))
		default:
			fmt.Printf("  %s %s %s %s\n", style.OK(),
				style.Branch.Render(item.Worktree.Branch),
				style.Dim.Render("remove"),
				style.Path.Render(item.Worktree.Path))
		}
		if item.ScanTruncated {
			fmt.Printf("    %s process scan incomplete; some processes were unreadable\n", style.Warn())
		}
		for _, proc := range item.Processes {
			fmt.Printf("    %s pid %d %s (%.1f%% cpu, %d MB)\n", style.Dim.Render("·"),
				proc.PID, proc.Name, proc.CPUPercent, proc.RSSBytes/(1<<20))
		}
	}

	counts := p.Summary.PerAction
	fmt.Printf("%s\n", style.Dim.Render(fmt.Sprintf(
		"%d to remove, %d to force-remove, %d skipped",
		counts[plan.ActionRemove], counts[plan.ActionForceRemove], counts[plan.ActionSkip])))
}

func printReport(report *warp.ReapReport) {
	if report.FetchWarning != nil {
		fmt.Printf("%s Fetch failed, classification may be stale: %v\n",
			style.Warn(), report.FetchWarning)
	}

	removed, failed := 0, 0
	for _, r := range report.Results {
		branch := style.Branch.Render(r.Item.Worktree.Branch)
		switch {
		case r.Err != nil:
			failed++
			fmt.Printf("%s %s: %v\n", style.Fail(), branch, r.Err)
		case r.Removed && r.BranchDeleted:
			removed++
			fmt.Printf("%s Removed %s and its branch\n", style.OK(), branch)
		case r.Removed:
			removed++
			fmt.Printf("%s Removed %s (branch kept)\n", style.OK(), branch)
		default:
			fmt.Printf("%s Skipped %s (%s)\n", style.Warn(), branch, r.Item.Reason)
		}
		for pid, outcome := range r.Killed {
			fmt.Printf("    %s pid %d %s\n", style.Dim.Render("·"), pid, outcome)
		}
	}
	fmt.Printf("\n%s\n", style.Dim.Render(fmt.Sprintf("%d removed, %d failed", removed, failed)))
}

func executable(p *plan.Plan) int {
	n := 0
	for _, item := range p.Items {
		if item.Action != plan.ActionSkip {
			n++
		}
	}
	return n
}

// confirm asks a y/N question on the terminal.
func confirm(prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("refusing destructive operation without a terminal; use --auto-confirm")
	}
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
