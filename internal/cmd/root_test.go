package cmd

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Frank-III/git-warp/internal/gitx"
	"github.com/Frank-III/git-warp/internal/warp"
)

func TestExitCodeMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("boom"), 1},
		{gitx.ErrNotARepository, 3},
		{fmt.Errorf("opening: %w", gitx.ErrNotARepository), 3},
		{gitx.ErrBranchCheckedOut, 4},
		{gitx.ErrWorktreeDirty, 4},
		{fmt.Errorf("item: %w", gitx.ErrWorktreeDirty), 4},
		{warp.ErrCancelled, 5},
		{errors.New(`unknown command "blorp" for "warp"`), 2},
		{errors.New("unknown flag: --frobnicate"), 2},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"switch": false, "ls": false, "cleanup": false, "config": false,
		"agents": false, "hooks-install": false, "hooks-remove": false,
		"hooks-status": false, "shell-config": false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %s not registered", name)
		}
	}
}

func TestShellWrappersMentionEchoMode(t *testing.T) {
	for name, wrapper := range map[string]string{
		"posix": posixWrapper,
		"fish":  fishWrapper,
	} {
		if !containsAll(wrapper, "--terminal echo", "eval") {
			t.Errorf("%s wrapper must run switch in echo mode and eval the output", name)
		}
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
