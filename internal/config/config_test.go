package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.TerminalMode != "tab" {
		t.Errorf("terminal_mode = %q, want tab", cfg.TerminalMode)
	}
	if !cfg.UseCoW {
		t.Error("use_cow should default to true")
	}
	if cfg.AutoConfirm {
		t.Error("auto_confirm should default to false")
	}
	if cfg.Process.KillTimeout != 5 {
		t.Errorf("kill_timeout = %d, want 5", cfg.Process.KillTimeout)
	}
	if !cfg.Git.AutoFetch || !cfg.Git.AutoPrune {
		t.Error("git auto_fetch/auto_prune should default to true")
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom missing file: %v", err)
	}
	if cfg.TerminalMode != "tab" {
		t.Errorf("missing file should yield defaults, got terminal_mode=%q", cfg.TerminalMode)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `terminal_mode = "window"
use_cow = false

[git]
default_branch = "develop"

[process]
kill_timeout = 9
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.TerminalMode != "window" {
		t.Errorf("terminal_mode = %q, want window", cfg.TerminalMode)
	}
	if cfg.UseCoW {
		t.Error("use_cow should be false")
	}
	if cfg.Git.DefaultBranch != "develop" {
		t.Errorf("default_branch = %q, want develop", cfg.Git.DefaultBranch)
	}
	if cfg.Process.KillTimeout != 9 {
		t.Errorf("kill_timeout = %d, want 9", cfg.Process.KillTimeout)
	}
	// Unset sections keep defaults.
	if !cfg.Process.CheckProcesses {
		t.Error("check_processes should keep its default")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WARP_TERMINAL_MODE", "echo")
	t.Setenv("WARP_AUTO_CONFIRM", "true")
	t.Setenv("WARP_USE_COW", "false")
	t.Setenv("WARP_PROCESS_KILL_TIMEOUT", "12")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TerminalMode != "echo" {
		t.Errorf("terminal_mode = %q, want echo", cfg.TerminalMode)
	}
	if !cfg.AutoConfirm {
		t.Error("auto_confirm should be true from env")
	}
	if cfg.UseCoW {
		t.Error("use_cow should be false from env")
	}
	if cfg.Process.KillTimeout != 12 {
		t.Errorf("kill_timeout = %d, want 12", cfg.Process.KillTimeout)
	}
}

func TestEnvOverridesBadValuesIgnored(t *testing.T) {
	t.Setenv("WARP_USE_COW", "definitely")
	t.Setenv("WARP_PROCESS_KILL_TIMEOUT", "soon")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.UseCoW {
		t.Error("unparseable bool should leave default")
	}
	if cfg.Process.KillTimeout != 5 {
		t.Errorf("unparseable int should leave default, got %d", cfg.Process.KillTimeout)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := Default()
	cfg.TerminalMode = "inplace"
	cfg.Git.DefaultBranch = "trunk"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.TerminalMode != "inplace" {
		t.Errorf("terminal_mode = %q, want inplace", loaded.TerminalMode)
	}
	if loaded.Git.DefaultBranch != "trunk" {
		t.Errorf("default_branch = %q, want trunk", loaded.Git.DefaultBranch)
	}
}

func TestKillGrace(t *testing.T) {
	cfg := Default()
	cfg.Process.KillTimeout = 3
	if got := cfg.KillGrace(); got != 3*time.Second {
		t.Errorf("KillGrace = %v, want 3s", got)
	}
}
