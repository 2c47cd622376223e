// Package config provides configuration loading and environment variable overrides.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Frank-III/git-warp/internal/util"
)

// Config is the merged configuration seen by the rest of warp.
// Values come from defaults, then the user config file, then WARP_*
// environment variables, in increasing precedence.
type Config struct {
	// TerminalMode selects how `warp switch` hands off: tab, window, inplace, echo.
	TerminalMode string `toml:"terminal_mode"`

	// UseCoW disables the copy-on-write fast path when false.
	UseCoW bool `toml:"use_cow"`

	// AutoConfirm skips interactive confirmation before destructive operations.
	AutoConfirm bool `toml:"auto_confirm"`

	// WorktreesPath overrides the default parent directory for new worktrees.
	// Empty means <parent of primary worktree>/worktrees.
	WorktreesPath string `toml:"worktrees_path"`

	Git      GitConfig      `toml:"git"`
	Process  ProcessConfig  `toml:"process"`
	Terminal TerminalConfig `toml:"terminal"`
	Agent    AgentConfig    `toml:"agent"`
}

// GitConfig controls branch classification and pre-cleanup fetching.
type GitConfig struct {
	// DefaultBranch is the branch merged-ness is judged against.
	// Empty means resolve from origin/HEAD, falling back to main then master.
	DefaultBranch string `toml:"default_branch"`

	// AutoFetch runs `git fetch` before classifying branches for cleanup.
	AutoFetch bool `toml:"auto_fetch"`

	// AutoPrune adds --prune to the auto-fetch.
	AutoPrune bool `toml:"auto_prune"`
}

// ProcessConfig controls the process-safety checks during cleanup.
type ProcessConfig struct {
	// CheckProcesses scans candidate worktrees for live processes before removal.
	CheckProcesses bool `toml:"check_processes"`

	// AutoKill authorizes process termination without the --kill flag.
	AutoKill bool `toml:"auto_kill"`

	// KillTimeout is the grace period in seconds before SIGKILL.
	KillTimeout int `toml:"kill_timeout"`
}

// TerminalConfig controls terminal automation.
type TerminalConfig struct {
	// App is the preferred terminal application: auto, iterm2, terminal.
	App string `toml:"app"`

	// AutoActivate brings new tabs/windows to the foreground.
	AutoActivate bool `toml:"auto_activate"`

	// InitCommands are run in every freshly created worktree shell.
	InitCommands []string `toml:"init_commands"`
}

// AgentConfig controls the live agent dashboard.
type AgentConfig struct {
	// Enabled turns the `warp agents` dashboard on.
	Enabled bool `toml:"enabled"`

	// RefreshRate is the dashboard poll interval in milliseconds.
	RefreshRate int `toml:"refresh_rate"`

	// ClaudeHooks enables Claude Code hook integration.
	ClaudeHooks bool `toml:"claude_hooks"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		TerminalMode: "tab",
		UseCoW:       true,
		Git: GitConfig{
			AutoFetch: true,
			AutoPrune: true,
		},
		Process: ProcessConfig{
			CheckProcesses: true,
			KillTimeout:    5,
		},
		Terminal: TerminalConfig{
			App:          "auto",
			AutoActivate: true,
		},
		Agent: AgentConfig{
			Enabled:     true,
			RefreshRate: 1000,
			ClaudeHooks: true,
		},
	}
}

// Path returns the user-scope config file location,
// <user config dir>/git-warp/config.toml.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, "git-warp", "config.toml"), nil
}

// Load reads the config file if present, then applies WARP_* environment
// overrides. A missing file is not an error; the defaults are used.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays WARP_* environment variables onto the config.
func (c *Config) applyEnv() {
	setString(&c.TerminalMode, "WARP_TERMINAL_MODE")
	setBool(&c.UseCoW, "WARP_USE_COW")
	setBool(&c.AutoConfirm, "WARP_AUTO_CONFIRM")
	setString(&c.WorktreesPath, "WARP_WORKTREES_PATH")
	setString(&c.Git.DefaultBranch, "WARP_GIT_DEFAULT_BRANCH")
	setBool(&c.Git.AutoFetch, "WARP_GIT_AUTO_FETCH")
	setBool(&c.Git.AutoPrune, "WARP_GIT_AUTO_PRUNE")
	setBool(&c.Process.CheckProcesses, "WARP_PROCESS_CHECK_PROCESSES")
	setBool(&c.Process.AutoKill, "WARP_PROCESS_AUTO_KILL")
	setInt(&c.Process.KillTimeout, "WARP_PROCESS_KILL_TIMEOUT")
	setString(&c.Terminal.App, "WARP_TERMINAL_APP")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// KillGrace returns the process termination grace period as a duration.
// The scanner enforces its own 500ms floor on top of this.
func (c *Config) KillGrace() time.Duration {
	return time.Duration(c.Process.KillTimeout) * time.Second
}

// Save writes the config as TOML to the user-scope location, creating
// parent directories as needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo is Save with an explicit file path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0644)
}

// Sample is a commented starter config printed by `warp config --edit`.
const Sample = `# git-warp configuration
# The top-level, [git] and [process] options and terminal.app can be
# overridden by a WARP_* environment variable, e.g. WARP_TERMINAL_MODE=window.
# The other [terminal] and [agent] options have no environment override.

# Terminal mode: tab, window, inplace, echo
terminal_mode = "tab"

# Use copy-on-write cloning when the filesystem supports it
use_cow = true

# Skip confirmation before destructive operations
auto_confirm = false

# Parent directory for new worktrees (optional)
# worktrees_path = "/path/to/worktrees"

[git]
# Branch that merged-ness is judged against; empty resolves origin/HEAD
default_branch = ""

# Fetch before classifying branches for cleanup
auto_fetch = true

# Add --prune to the auto-fetch
auto_prune = true

[process]
# Scan candidate worktrees for live processes before removal
check_processes = true

# Terminate processes without requiring --kill
auto_kill = false

# Grace period in seconds before SIGKILL
kill_timeout = 5

[terminal]
# Terminal app: auto, iterm2, terminal
app = "auto"

# Bring new tabs/windows to the foreground
auto_activate = true

# Commands run in every freshly created worktree shell
# init_commands = ["direnv allow"]

[agent]
# Enable the live agent dashboard
enabled = true

# Dashboard poll interval in milliseconds
refresh_rate = 1000

# Enable Claude Code hook integration
claude_hooks = true
`
