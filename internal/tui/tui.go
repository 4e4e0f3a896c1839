// Package tui provides a Bubble Tea TUI that follows the timer live:
// it re-queries the daemon every second and whenever the export file
// changes, and maps a few keys onto control commands.
package tui

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"github.com/fakeyudi/tomatod/internal/client"
	"github.com/fakeyudi/tomatod/internal/render"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("178"))

	classStyles = map[string]lipgloss.Style{
		"running":   lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true),
		"paused":    lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		"idle":      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		"completed": lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
		"error":     lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}

	tooltipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// ── Messages ──────────

type tickMsg time.Time

// exportChangedMsg arrives when fsnotify sees the daemon rewrite the
// status-bar payload file, so the view refreshes immediately after a
// command from another terminal.
type exportChangedMsg struct{}

type payloadMsg render.Payload

type errMsg struct{ err error }

// ── Model ─────────────

// Model is the root Bubble Tea model for tomatod watch.
type Model struct {
	client   *client.Client
	payload  render.Payload
	progress progress.Model
	width    int
	err      error
}

// New returns a watch model talking to the daemon behind cl.
func New(cl *client.Client) Model {
	return Model{
		client:   cl,
		progress: progress.New(progress.WithDefaultGradient()),
		width:    60,
	}
}

// Init starts the refresh loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetch queries the daemon for the current payload.
func (m Model) fetch() tea.Cmd {
	cl := m.client
	return func() tea.Msg {
		p, err := cl.Status()
		if err != nil {
			return errMsg{err}
		}
		return payloadMsg(p)
	}
}

// command issues a control verb and refreshes with the reply.
func (m Model) command(verb string) tea.Cmd {
	cl := m.client
	return func() tea.Msg {
		p, err := cl.Command(verb, "")
		if err != nil {
			return errMsg{err}
		}
		return payloadMsg(p)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(msg.Width-8, 50)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "s":
			return m, m.command("start")
		case " ":
			// Toggle pause/resume depending on what the timer is doing.
			if m.payload.Class == "paused" {
				return m, m.command("resume")
			}
			return m, m.command("pause")
		case "n":
			return m, m.command("skip")
		case "x":
			return m, m.command("stop")
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetch(), tick())

	case exportChangedMsg:
		return m, m.fetch()

	case payloadMsg:
		m.payload = render.Payload(msg)
		m.err = nil
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

// View renders the live status.
func (m Model) View() string {
	title := titleStyle.Render("tomatod")

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s\n\n%s\n",
			title,
			classStyles["error"].Render(m.err.Error()),
			hintStyle.Render("s start · q quit"))
	}

	style, ok := classStyles[m.payload.Class]
	if !ok {
		style = tooltipStyle
	}

	body := clockStyle.Render(m.payload.Text) + "  " + style.Render(m.payload.Class)
	if m.payload.Percentage != nil {
		body += "\n\n" + m.progress.ViewAs(float64(*m.payload.Percentage)/100)
	}
	if m.payload.Tooltip != "" {
		body += "\n\n" + tooltipStyle.Render(m.payload.Tooltip)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s\n",
		title,
		body,
		hintStyle.Render("s start · space pause/resume · n skip · x stop · q quit"))
}

// Run starts the watch TUI. The export file at exportPath is watched
// so changes made from other terminals show up without waiting for
// the next poll.
func Run(cl *client.Client, exportPath string) error {
	p := tea.NewProgram(New(cl), tea.WithAltScreen())

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		defer watcher.Close()
		// Fall back to the directory when the file does not exist
		// yet, e.g. watch launched before the first export.
		if err := watcher.Add(exportPath); err != nil {
			watcher.Add(filepath.Dir(exportPath))
		}
		go func() {
			for {
				select {
				case ev, ok := <-watcher.Events:
					if !ok {
						return
					}
					if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
						p.Send(exportChangedMsg{})
					}
				case _, ok := <-watcher.Errors:
					if !ok {
						return
					}
				}
			}
		}()
	}

	_, err = p.Run()
	return err
}
