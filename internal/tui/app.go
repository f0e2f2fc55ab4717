// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for strata.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/reedfield/strata/internal/bus"
	"github.com/reedfield/strata/internal/logbook"
	"github.com/reedfield/strata/internal/task"
	"github.com/reedfield/strata/internal/walker"
)

const (
	treeRefreshInterval = time.Second
	maxRecentEvents     = 40
)

type eventMsg struct {
	event bus.Event
	ok    bool
}

type refreshMsg struct {
	snapshot walker.Progress
}

type executionDoneMsg struct {
	result any
	err    error
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	session *walker.Session
	sub     bus.Subscription
	logbook *logbook.Logbook
	spinner spinner.Model

	snapshot  walker.Progress
	events    []bus.Event
	statusMsg string
	finished  bool

	width  int
	height int
}

// AppOption customizes App construction.
type AppOption func(*App)

// WithLogbook attaches the journal whose tail is rendered below the tree.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = lb
	}
}

// NewApp builds the delegation tree viewer. The router feeds lifecycle
// events; the session is the tree being watched and the target of the
// pause/resume keys.
func NewApp(session *walker.Session, router *bus.Router, opts ...AppOption) *App {
	app := &App{
		session:   session,
		sub:       router.Subscribe(bus.TopicAll),
		statusMsg: "p → pause    r → resume    q → quit",
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))),
		),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.snapshot = session.Progress()
	return app
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.waitForEvent(), a.scheduleRefresh(), a.spinner.Tick)
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case eventMsg:
		if !msg.ok {
			// Subscription closed; keep rendering the last snapshot.
			return a, nil
		}
		a.recordEvent(msg.event)
		a.snapshot = a.session.Progress()
		return a, a.waitForEvent()

	case refreshMsg:
		a.snapshot = msg.snapshot
		if a.finished {
			return a, nil
		}
		return a, a.scheduleRefresh()

	case spinner.TickMsg:
		if a.finished {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case executionDoneMsg:
		a.snapshot = a.session.Progress()
		if msg.err != nil {
			a.statusMsg = fmt.Sprintf("execution stopped: %v", msg.err)
		} else {
			a.statusMsg = fmt.Sprintf("completed: %v", msg.result)
			a.finished = true
		}
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			a.sub.Close()
			return a, tea.Quit
		case "p":
			if err := a.session.Pause(); err != nil {
				a.statusMsg = fmt.Sprintf("pause: %v", err)
			} else {
				a.statusMsg = "paused · r → resume"
			}
			a.snapshot = a.session.Progress()
			return a, nil
		case "r":
			if a.session.Task().Status() != task.StatusPaused {
				a.statusMsg = "nothing to resume"
				return a, nil
			}
			a.statusMsg = "resuming..."
			return a, a.resumeSession()
		}
	}

	return a, nil
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	rightWidth := max(32, width/3)
	leftWidth := width - rightWidth - 4

	title := "⬡ STRATA"
	if !a.finished && a.snapshot.Status == task.StatusRunning {
		title += "  " + a.spinner.View()
	}
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render(title)

	leftBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, leftWidth)).
		Render(a.renderTreePanel(leftWidth - 4))
	rightBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, rightWidth)).
		Render(a.renderEventsPanel(rightWidth - 4))
	body := lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)

	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusMsg)
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) recordEvent(event bus.Event) {
	a.events = append(a.events, event)
	if len(a.events) > maxRecentEvents {
		a.events = a.events[len(a.events)-maxRecentEvents:]
	}
}

func (a *App) renderEventsPanel(width int) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("Events (%d)", len(a.events)))
	if len(a.events) == 0 {
		note := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("Waiting for delegation activity.")
		return lipgloss.JoinVertical(lipgloss.Left, title, note)
	}
	shown := a.events
	if len(shown) > 12 {
		shown = shown[len(shown)-12:]
	}
	var rows []string
	for _, event := range shown {
		rows = append(rows, renderEventLine(event, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n"))
}

func renderEventLine(event bus.Event, width int) string {
	label := string(event.Status)
	if event.Objective != "" {
		label += " · " + event.Objective
	}
	line := truncate(fmt.Sprintf("%s %s", statusGlyph(event.Status), label), width)
	return lipgloss.NewStyle().Foreground(statusColor(event.Status)).Render(line)
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render("JOURNAL")
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-a.sub.Events
		return eventMsg{event: event, ok: ok}
	}
}

func (a *App) scheduleRefresh() tea.Cmd {
	return tea.Tick(treeRefreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{snapshot: a.session.Progress()}
	})
}

func (a *App) resumeSession() tea.Cmd {
	return func() tea.Msg {
		result, err := a.session.Resume()
		return executionDoneMsg{result: result, err: err}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
