package terminal

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"tab":     ModeTab,
		"window":  ModeWindow,
		"inplace": ModeInPlace,
		"echo":    ModeEcho,
		"ECHO":    ModeEcho,
	} {
		got, err := ParseMode(in)
		if err != nil {
			t.Errorf("ParseMode(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseMode(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseMode("popup"); err == nil {
		t.Error("ParseMode(popup) should fail")
	}
}

func TestEchoModeQuotesPath(t *testing.T) {
	var buf bytes.Buffer
	if err := Open(ModeEcho, "/work trees/feat x", "auto", nil, &buf); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	if !strings.Contains(got, `'/work trees/feat x'`) {
		t.Errorf("output %q does not shell-quote the path", got)
	}
	if !strings.HasPrefix(got, "cd ") {
		t.Errorf("output %q should start with cd", got)
	}
}

func TestEchoModeIncludesInitCommands(t *testing.T) {
	var buf bytes.Buffer
	if err := Open(ModeEcho, "/wt/x", "auto", []string{"direnv allow"}, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "direnv allow") {
		t.Errorf("output %q missing init command", buf.String())
	}
}

func TestModeString(t *testing.T) {
	for m, want := range map[Mode]string{
		ModeTab:     "tab",
		ModeWindow:  "window",
		ModeInPlace: "inplace",
		ModeEcho:    "echo",
	} {
		if got := m.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", m, got, want)
		}
	}
}
