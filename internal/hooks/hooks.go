// Package hooks installs the Claude Code hook entries that feed the
// agent dashboard. Entries are tagged with a git_warp_hook_id marker so
// installation and removal never disturb hooks owned by anything else.
package hooks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Frank-III/git-warp/internal/util"
)

// markerKey tags hook entries owned by warp inside settings.json.
const markerKey = "git_warp_hook_id"

// statusCommand writes the agent status file read by `warp agents`.
const statusCommand = `ROOT=$(git rev-parse --show-toplevel 2>/dev/null || pwd) && mkdir -p "$ROOT/.claude/git-warp" && echo "{\"status\":\"%s\",\"last_activity\":\"$(date -Iseconds)\"}" > "$ROOT/.claude/git-warp/status"`

// events maps each Claude Code hook event to the agent status it records.
var events = []struct {
	Event  string
	Status string
	ID     string
}{
	{"UserPromptSubmit", "processing", "agent_status_userpromptsubmit"},
	{"PreToolUse", "working", "agent_status_pretooluse"},
	{"PostToolUse", "processing", "agent_status_posttooluse"},
	{"Stop", "waiting", "agent_status_stop"},
	{"SubagentStop", "subagent_complete", "agent_status_subagent_stop"},
}

// Level is where hooks are installed.
type Level string

const (
	LevelUser    Level = "user"
	LevelProject Level = "project"
	LevelConsole Level = "console"
)

// ParseLevel validates a --level value; empty defaults to console.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "", "console":
		return LevelConsole, nil
	case "user":
		return LevelUser, nil
	case "project":
		return LevelProject, nil
	}
	return "", fmt.Errorf("invalid level %q (want user, project, or console)", s)
}

// SettingsPath returns the settings.json location for a level.
// LevelConsole has no file.
func SettingsPath(level Level) (string, error) {
	switch level {
	case LevelUser:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locating home directory: %w", err)
		}
		return filepath.Join(home, ".claude", "settings.json"), nil
	case LevelProject:
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(cwd, ".claude", "settings.json"), nil
	}
	return "", fmt.Errorf("level %q has no settings file", level)
}

// Config returns the hooks section warp installs, as generic JSON.
func Config() map[string]any {
	hooks := make(map[string]any, len(events))
	for _, e := range events {
		hooks[e.Event] = []any{
			map[string]any{
				"hooks": []any{
					map[string]any{
						"type":    "command",
						"command": fmt.Sprintf(statusCommand, e.Status),
					},
				},
				markerKey: e.ID,
			},
		}
	}
	return map[string]any{"hooks": hooks}
}

// ConfigJSON renders Config for the console level.
func ConfigJSON() (string, error) {
	data, err := json.MarshalIndent(Config(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Install merges warp's hook entries into the settings file for level.
// Existing non-warp content is preserved; warp entries already present
// are not duplicated.
func Install(level Level) (string, error) {
	path, err := SettingsPath(level)
	if err != nil {
		return "", err
	}

	settings, err := readSettings(path)
	if err != nil {
		return "", err
	}

	hooksSection, _ := settings["hooks"].(map[string]any)
	if hooksSection == nil {
		hooksSection = make(map[string]any)
	}

	for _, e := range events {
		entries, _ := hooksSection[e.Event].([]any)
		if hasMarker(entries, e.ID) {
			continue
		}
		entries = append(entries, map[string]any{
			"hooks": []any{
				map[string]any{
					"type":    "command",
					"command": fmt.Sprintf(statusCommand, e.Status),
				},
			},
			markerKey: e.ID,
		})
		hooksSection[e.Event] = entries
	}
	settings["hooks"] = hooksSection

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating settings directory: %w", err)
	}
	if err := util.AtomicWriteJSON(path, settings); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// Remove filters warp's entries out of the settings file for level.
// Events left with no entries are dropped; everything else is untouched.
func Remove(level Level) (string, error) {
	path, err := SettingsPath(level)
	if err != nil {
		return "", err
	}

	settings, err := readSettings(path)
	if err != nil {
		return "", err
	}
	hooksSection, _ := settings["hooks"].(map[string]any)
	if hooksSection == nil {
		return path, nil
	}

	for event, raw := range hooksSection {
		entries, _ := raw.([]any)
		var kept []any
		for _, entry := range entries {
			if m, ok := entry.(map[string]any); ok {
				if _, owned := m[markerKey]; owned {
					continue
				}
			}
			kept = append(kept, entry)
		}
		if len(kept) == 0 {
			delete(hooksSection, event)
		} else {
			hooksSection[event] = kept
		}
	}
	if len(hooksSection) == 0 {
		delete(settings, "hooks")
	}

	if err := util.AtomicWriteJSON(path, settings); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// Installed returns the warp hook ids present in the settings file for
// level, or nil when the file is absent.
func Installed(level Level) ([]string, error) {
	path, err := SettingsPath(level)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	settings, err := readSettings(path)
	if err != nil {
		return nil, err
	}
	hooksSection, _ := settings["hooks"].(map[string]any)

	ids := []string{}
	for _, raw := range hooksSection {
		entries, _ := raw.([]any)
		for _, entry := range entries {
			if m, ok := entry.(map[string]any); ok {
				if id, ok := m[markerKey].(string); ok {
					ids = append(ids, id)
				}
			}
		}
	}
	return ids, nil
}

func readSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return make(map[string]any), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	settings := make(map[string]any)
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return settings, nil
}

func hasMarker(entries []any, id string) bool {
	for _, entry := range entries {
		if m, ok := entry.(map[string]any); ok {
			if got, ok := m[markerKey].(string); ok && got == id {
				return true
			}
		}
	}
	return false
}
