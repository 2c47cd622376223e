package gitx

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// initRepo creates a git repository with one initial commit on main.
func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run(t, dir, "init", "-b", "main")
	run(t, dir, "config", "user.email", "warp@example.com")
	run(t, dir, "config", "user.name", "warp")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0644); err != nil {
		t.Fatal(err)
	}
	run(t, dir, "add", ".")
	run(t, dir, "commit", "-m", "initial")
	return dir
}

func run(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

func TestOpenNotARepository(t *testing.T) {
	_, err := Open(t.TempDir())
	if !errors.Is(err, ErrNotARepository) {
		t.Fatalf("err = %v, want ErrNotARepository", err)
	}
}

func TestOpenFindsPrimaryRoot(t *testing.T) {
	dir := initRepo(t)
	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	r, err := Open(sub)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.Root() != canonical(dir) {
		t.Errorf("Root = %q, want %q", r.Root(), canonical(dir))
	}
	if !strings.HasSuffix(r.CommonDir(), ".git") {
		t.Errorf("CommonDir = %q, want a .git path", r.CommonDir())
	}
}

func TestParseWorktreePorcelain(t *testing.T) {
	out := `worktree /repo
HEAD 0123456789abcdef0123456789abcdef01234567
branch refs/heads/main

worktree /wt/feat-x
HEAD aaaa456789abcdef0123456789abcdef01234567
branch refs/heads/feat/x
locked

worktree /wt/gone
HEAD bbbb456789abcdef0123456789abcdef01234567
detached
prunable
`
	worktrees := parseWorktreePorcelain(out)
	if len(worktrees) != 3 {
		t.Fatalf("parsed %d worktrees, want 3", len(worktrees))
	}
	if !worktrees[0].IsPrimary || worktrees[0].Branch != "main" {
		t.Errorf("first record = %+v, want primary on main", worktrees[0])
	}
	if worktrees[1].Branch != "feat/x" || !worktrees[1].IsLocked {
		t.Errorf("second record = %+v, want locked feat/x", worktrees[1])
	}
	if !worktrees[2].IsDetached || !worktrees[2].IsPrunable || worktrees[2].Branch != "" {
		t.Errorf("third record = %+v, want detached prunable", worktrees[2])
	}
}

func TestCreateAndListWorktrees(t *testing.T) {
	dir := initRepo(t)
	r, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	target := filepath.Join(filepath.Dir(dir), filepath.Base(dir)+"-wt")
	t.Cleanup(func() { os.RemoveAll(target) })
	if err := r.CreateWorktree(target, "feat/x", ""); err != nil {
		t.Fatalf("CreateWorktree: %v", err)
	}

	worktrees, err := r.ListWorktrees()
	if err != nil {
		t.Fatal(err)
	}
	if len(worktrees) != 2 {
		t.Fatalf("listed %d worktrees, want 2", len(worktrees))
	}
	if worktrees[1].Branch != "feat/x" {
		t.Errorf("branch = %q, want feat/x", worktrees[1].Branch)
	}
	if worktrees[1].Path != canonical(target) {
		t.Errorf("path = %q, want %q", worktrees[1].Path, canonical(target))
	}

	wt, err := r.WorktreeFor("feat/x")
	if err != nil {
		t.Fatal(err)
	}
	if wt == nil {
		t.Fatal("WorktreeFor(feat/x) = nil")
	}
}

func TestCreateWorktreeBranchCheckedOut(t *testing.T) {
	dir := initRepo(t)
	r, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	target := filepath.Join(filepath.Dir(dir), filepath.Base(dir)+"-conflict")
	t.Cleanup(func() { os.RemoveAll(target) })
	// main is checked out in the primary worktree.
	err = r.CreateWorktree(target, "main", "")
	if !errors.Is(err, ErrBranchCheckedOut) {
		t.Fatalf("err = %v, want ErrBranchCheckedOut", err)
	}
}

func TestCreateWorktreeInsidePrimary(t *testing.T) {
	dir := initRepo(t)
	r, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	err = r.CreateWorktree(filepath.Join(dir, "nested"), "feat/n", "")
	if !errors.Is(err, ErrPathInsidePrimary) {
		t.Fatalf("err = %v, want ErrPathInsidePrimary", err)
	}
}

func TestRegisterExisting(t *testing.T) {
	dir := initRepo(t)
	r, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	// Stand in for a CoW clone: a plain recursive copy of the primary,
	// .git directory included.
	target := filepath.Join(filepath.Dir(dir), filepath.Base(dir)+"-clone")
	t.Cleanup(func() { os.RemoveAll(target) })
	if out, err := exec.Command("cp", "-R", dir, target).CombinedOutput(); err != nil {
		t.Fatalf("cp -R: %v\n%s", err, out)
	}

	if err := r.RegisterExisting(target, "feat/clone"); err != nil {
		t.Fatalf("RegisterExisting: %v", err)
	}

	wt, err := r.WorktreeFor("feat/clone")
	if err != nil {
		t.Fatal(err)
	}
	if wt == nil {
		t.Fatal("clone not registered as a worktree")
	}
	if wt.Path != canonical(target) {
		t.Errorf("registered path = %q, want %q", wt.Path, canonical(target))
	}

	// The attach must leave the clone clean: files already match the tip.
	dirty, err := r.IsDirty(target)
	if err != nil {
		t.Fatal(err)
	}
	if dirty {
		t.Error("freshly registered clone reports dirty")
	}
}

func TestRegisterExistingBranchConflict(t *testing.T) {
	dir := initRepo(t)
	r, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(filepath.Dir(dir), filepath.Base(dir)+"-clone2")
	t.Cleanup(func() { os.RemoveAll(target) })
	if err := os.MkdirAll(target, 0755); err != nil {
		t.Fatal(err)
	}
	err = r.RegisterExisting(target, "main")
	if !errors.Is(err, ErrBranchCheckedOut) {
		t.Fatalf("err = %v, want ErrBranchCheckedOut", err)
	}
}

func TestRemoveWorktreeDirty(t *testing.T) {
	dir := initRepo(t)
	r, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	target := filepath.Join(filepath.Dir(dir), filepath.Base(dir)+"-dirty")
	t.Cleanup(func() { os.RemoveAll(target) })
	if err := r.CreateWorktree(target, "feat/d", ""); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(target, "scratch.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	err = r.RemoveWorktree(target, false)
	if !errors.Is(err, ErrWorktreeDirty) {
		t.Fatalf("err = %v, want ErrWorktreeDirty", err)
	}

	if err := r.RemoveWorktree(target, true); err != nil {
		t.Fatalf("forced removal: %v", err)
	}
	if _, err := os.Stat(target); !errors.Is(err, os.ErrNotExist) {
		t.Error("worktree directory still exists after forced removal")
	}
}

func TestIsDirty(t *testing.T) {
	dir := initRepo(t)
	r, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	dirty, err := r.IsDirty(dir)
	if err != nil {
		t.Fatal(err)
	}
	if dirty {
		t.Error("fresh repo reports dirty")
	}

	if err := os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	dirty, err = r.IsDirty(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !dirty {
		t.Error("untracked file not reported as dirty")
	}
}

func TestClassifyBranches(t *testing.T) {
	dir := initRepo(t)

	// merged: branched off main, no extra commits.
	run(t, dir, "branch", "merged-branch")

	// active-ish: has a commit main does not.
	run(t, dir, "checkout", "-b", "ahead-branch")
	if err := os.WriteFile(filepath.Join(dir, "feature.txt"), []byte("f\n"), 0644); err != nil {
		t.Fatal(err)
	}
	run(t, dir, "add", ".")
	run(t, dir, "commit", "-m", "feature work")
	run(t, dir, "checkout", "main")

	r, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	infos, err := r.ClassifyBranches("main")
	if err != nil {
		t.Fatalf("ClassifyBranches: %v", err)
	}

	if got := infos["main"].Class(); got != ClassPrimary {
		t.Errorf("main class = %v, want primary", got)
	}
	if !infos["merged-branch"].Merged {
		t.Error("merged-branch should be merged")
	}
	if infos["ahead-branch"].Merged {
		t.Error("ahead-branch should not be merged")
	}
	// No remotes configured, so both are also remoteless.
	if !infos["merged-branch"].Remoteless || !infos["ahead-branch"].Remoteless {
		t.Error("branches without remotes should be remoteless")
	}

	// Tie-break: merged+remoteless counts under the requested class first.
	info := infos["merged-branch"]
	if got := info.ClassPreferring(ClassRemoteless); got != ClassRemoteless {
		t.Errorf("ClassPreferring(remoteless) = %v", got)
	}
	if got := info.ClassPreferring(ClassMerged); got != ClassMerged {
		t.Errorf("ClassPreferring(merged) = %v", got)
	}
	if got := infos["ahead-branch"].Class(); got != ClassRemoteless {
		t.Errorf("ahead-branch class = %v, want remoteless", got)
	}
}

func TestDefaultBranchFallback(t *testing.T) {
	dir := initRepo(t)
	r, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	got, err := r.DefaultBranch("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "main" {
		t.Errorf("DefaultBranch = %q, want main", got)
	}

	got, err = r.DefaultBranch("trunk")
	if err != nil {
		t.Fatal(err)
	}
	if got != "trunk" {
		t.Errorf("configured DefaultBranch = %q, want trunk", got)
	}
}

func TestDeleteBranch(t *testing.T) {
	dir := initRepo(t)
	run(t, dir, "branch", "doomed")

	r, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.DeleteBranch("doomed", true); err != nil {
		t.Fatalf("DeleteBranch: %v", err)
	}
	exists, err := r.BranchExists("doomed")
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("branch still exists after deletion")
	}
}

func TestPruneDropsStaleRecords(t *testing.T) {
	dir := initRepo(t)
	r, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	target := filepath.Join(filepath.Dir(dir), filepath.Base(dir)+"-stale")
	if err := r.CreateWorktree(target, "feat/stale", ""); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(target); err != nil {
		t.Fatal(err)
	}
	if err := r.Prune(); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	worktrees, err := r.ListWorktrees()
	if err != nil {
		t.Fatal(err)
	}
	for _, wt := range worktrees {
		if wt.Branch == "feat/stale" {
			t.Error("stale worktree record survived prune")
		}
	}
}

func TestIsWithin(t *testing.T) {
	tests := []struct {
		path, dir string
		want      bool
	}{
		{"/a/b/c", "/a/b", true},
		{"/a/b", "/a/b", true},
		{"/a/bc", "/a/b", false},
		{"/a", "/a/b", false},
		{"/x/y", "/a/b", false},
	}
	for _, tt := range tests {
		if got := isWithin(tt.path, tt.dir); got != tt.want {
			t.Errorf("isWithin(%q, %q) = %v, want %v", tt.path, tt.dir, got, tt.want)
		}
	}
}
