// Package style defines the lipgloss styles shared by warp's command output.
package style

import "github.com/charmbracelet/lipgloss"

var (
	Bold    = lipgloss.NewStyle().Bold(true)
	Dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	Error   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	Branch  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	Path    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	Header  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
)

// Severity glyphs. Commands print one line per significant event,
// prefixed with one of these.
func OK() string   { return Success.Render("✓") }
func Warn() string { return Warning.Render("⚠") }
func Fail() string { return Error.Render("✗") }
func Step() string { return Dim.Render("→") }
