package agents

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"github.com/Frank-III/git-warp/internal/gitx"
	"github.com/Frank-III/git-warp/internal/style"
)

// Dashboard is the live `warp agents` view: one row per worktree, updated
// on a poll tick and, where the watcher can attach, on file change events.
type Dashboard struct {
	repo    *gitx.Repo
	refresh time.Duration
	watcher *fsnotify.Watcher

	table table.Model
	err   error
}

// NewDashboard builds the dashboard for repo. refresh is the poll
// interval; change notifications arrive faster when fsnotify can watch
// the status directories.
func NewDashboard(repo *gitx.Repo, refresh time.Duration) *Dashboard {
	columns := []table.Column{
		{Title: "Branch", Width: 28},
		{Title: "Status", Width: 18},
		{Title: "Last activity", Width: 16},
		{Title: "Path", Width: 44},
	}
	tbl := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("205")).Bold(true)
	tbl.SetStyles(styles)

	return &Dashboard{repo: repo, refresh: refresh, table: tbl}
}

// Run blocks until the user quits the dashboard.
func (d *Dashboard) Run() error {
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		d.watcher = watcher
		defer watcher.Close()
		d.watchWorktrees()
	}

	_, err := tea.NewProgram(d, tea.WithAltScreen()).Run()
	return err
}

// watchWorktrees registers every existing status directory with the
// watcher. Worktrees without a status dir yet are picked up by the poll.
func (d *Dashboard) watchWorktrees() {
	worktrees, err := d.repo.ListWorktrees()
	if err != nil {
		return
	}
	for _, wt := range worktrees {
		_ = d.watcher.Add(filepath.Dir(StatusPath(wt.Path)))
	}
}

type tickMsg time.Time

type statesMsg struct {
	states []State
	err    error
}

type fileChangedMsg struct{}

func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(d.loadStates, d.tick(), d.waitForChange())
}

func (d *Dashboard) tick() tea.Cmd {
	return tea.Tick(d.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// waitForChange blocks on the next fsnotify event, if a watcher exists.
func (d *Dashboard) waitForChange() tea.Cmd {
	if d.watcher == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			select {
			case _, ok := <-d.watcher.Events:
				if !ok {
					return nil
				}
				return fileChangedMsg{}
			case _, ok := <-d.watcher.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

func (d *Dashboard) loadStates() tea.Msg {
	states, err := Collect(d.repo)
	return statesMsg{states: states, err: err}
}

func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return d, tea.Quit
		case "r":
			return d, d.loadStates
		}

	case tickMsg:
		return d, tea.Batch(d.loadStates, d.tick())

	case fileChangedMsg:
		return d, tea.Batch(d.loadStates, d.waitForChange())

	case statesMsg:
		d.err = msg.err
		if msg.err == nil {
			d.table.SetRows(rowsFor(msg.states))
		}
		return d, nil
	}

	var cmd tea.Cmd
	d.table, cmd = d.table.Update(msg)
	return d, cmd
}

func (d *Dashboard) View() string {
	header := style.Header.Render("warp agents") + "  " +
		style.Dim.Render("q quit · r refresh")
	if d.err != nil {
		return fmt.Sprintf("%s\n\n%s %v\n", header, style.Fail(), d.err)
	}
	return header + "\n\n" + d.table.View() + "\n"
}

// rowsFor renders states into table rows, primary worktree first.
func rowsFor(states []State) []table.Row {
	rows := make([]table.Row, 0, len(states))
	for _, s := range states {
		branch := s.Worktree.Branch
		if branch == "" {
			branch = "(detached)"
		}
		if s.Worktree.IsPrimary {
			branch += " *"
		}
		rows = append(rows, table.Row{
			branch,
			statusGlyph(s.Status) + " " + s.Status,
			relativeAge(s.LastSeen),
			s.Worktree.Path,
		})
	}
	return rows
}

func statusGlyph(status string) string {
	switch status {
	case "working", "processing":
		return "●"
	case "waiting":
		return "◐"
	case "subagent_complete":
		return "◍"
	default:
		return "○"
	}
}

// relativeAge formats a last-activity timestamp as a compact age.
func relativeAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := time.Since(t)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}
