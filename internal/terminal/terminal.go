// Package terminal hands a freshly materialized worktree to the user's
// terminal: a new tab or window on macOS, or an echoed cd command that a
// shell wrapper can capture.
package terminal

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"github.com/Frank-III/git-warp/internal/util"
)

// Mode selects the hand-off behavior.
type Mode int

const (
	ModeTab Mode = iota
	ModeWindow
	ModeInPlace
	ModeEcho
)

func (m Mode) String() string {
	switch m {
	case ModeWindow:
		return "window"
	case ModeInPlace:
		return "inplace"
	case ModeEcho:
		return "echo"
	default:
		return "tab"
	}
}

// ParseMode maps a --terminal value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "tab":
		return ModeTab, nil
	case "window":
		return ModeWindow, nil
	case "inplace":
		return ModeInPlace, nil
	case "echo":
		return ModeEcho, nil
	}
	return 0, fmt.Errorf("unknown terminal mode %q (want tab, window, inplace, or echo)", s)
}

// Open switches the user's terminal to path according to mode. Echo and
// inplace write the cd command to w; tab and window drive the terminal
// application on macOS and write only the cd command to w elsewhere. A
// failed osascript run on macOS is returned as an error.
func Open(mode Mode, path string, app string, initCommands []string, w io.Writer) error {
	switch mode {
	case ModeEcho:
		fmt.Fprintf(w, "cd %s\n", util.ShellQuote(path))
		for _, cmd := range initCommands {
			fmt.Fprintln(w, cmd)
		}
		return nil
	case ModeInPlace:
		// The parent shell cannot be chdir'd from a child process; print
		// the command for the shell-config wrapper to eval.
		fmt.Fprintf(w, "cd %s\n", util.ShellQuote(path))
		return nil
	}

	if runtime.GOOS != "darwin" {
		fmt.Fprintf(w, "cd %s\n", util.ShellQuote(path))
		return nil
	}
	return openDarwin(mode, path, app, initCommands)
}

// openDarwin drives iTerm2 or Terminal.app through osascript.
func openDarwin(mode Mode, path string, app string, initCommands []string) error {
	cd := "cd " + util.ShellQuote(path)
	for _, cmd := range initCommands {
		cd += "; " + cmd
	}

	switch app {
	case "iterm2":
		return runAppleScript(itermScript(mode, cd))
	case "terminal":
		return runAppleScript(terminalScript(mode, cd))
	default:
		if appAvailable("iTerm") {
			return runAppleScript(itermScript(mode, cd))
		}
		return runAppleScript(terminalScript(mode, cd))
	}
}

func itermScript(mode Mode, command string) string {
	if mode == ModeWindow {
		return fmt.Sprintf(`tell application "iTerm"
	create window with default profile
	tell current session of current window
		write text %q
	end tell
end tell`, command)
	}
	return fmt.Sprintf(`tell application "iTerm"
	tell current window
		create tab with default profile
		tell current session of current tab
			write text %q
		end tell
	end tell
end tell`, command)
}

func terminalScript(mode Mode, command string) string {
	if mode == ModeWindow {
		return fmt.Sprintf(`tell application "Terminal"
	do script %q
	activate
end tell`, command)
	}
	return fmt.Sprintf(`tell application "Terminal"
	activate
	tell application "System Events" to keystroke "t" using command down
	delay 0.3
	do script %q in front window
end tell`, command)
}

func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("osascript: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func appAvailable(name string) bool {
	script := fmt.Sprintf(`tell application %q to get version`, name)
	return exec.Command("osascript", "-e", script).Run() == nil
}
