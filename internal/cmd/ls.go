package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Frank-III/git-warp/internal/gitx"
	"github.com/Frank-III/git-warp/internal/style"
)

var lsDebug bool

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List all worktrees",
	RunE:    runLs,
}

func init() {
	lsCmd.Flags().BoolVar(&lsDebug, "debug", false, "Show HEAD and state details per worktree")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	repo, err := gitx.Find()
	if err != nil {
		return err
	}

	worktrees, err := repo.ListWorktrees()
	if err != nil {
		return err
	}
	if len(worktrees) == 0 {
		fmt.Println("No worktrees found")
		return nil
	}

	// Primary first, then branches in human collation order.
	coll := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(worktrees, func(i, j int) bool {
		if worktrees[i].IsPrimary != worktrees[j].IsPrimary {
			return worktrees[i].IsPrimary
		}
		return coll.CompareString(worktrees[i].Branch, worktrees[j].Branch) < 0
	})

	for _, wt := range worktrees {
		glyph := style.Dim.Render("⎇")
		if wt.IsPrimary {
			glyph = style.Bold.Render("⌂")
		}

		label := style.Branch.Render(wt.Branch)
		if wt.IsDetached {
			label = style.Warning.Render("(detached " + shortHash(wt.Head) + ")")
		}

		var marks string
		if wt.IsLocked {
			marks += " " + style.Dim.Render("[locked]")
		}
		if wt.IsPrunable {
			marks += " " + style.Dim.Render("[prunable]")
		}

		fmt.Printf("%s  %s%s  %s\n", glyph, label, marks, style.Path.Render(wt.Path))

		if lsDebug {
			fmt.Printf("     %s %s\n", style.Dim.Render("HEAD:"), wt.Head)
		}
	}

	fmt.Printf("\n%s\n", style.Dim.Render(fmt.Sprintf("%d worktrees", len(worktrees))))
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
