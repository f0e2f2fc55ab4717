package tui

import (
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/reedfield/strata/internal/bus"
	"github.com/reedfield/strata/internal/spec"
	"github.com/reedfield/strata/internal/task"
	"github.com/reedfield/strata/internal/walker"
)

func newTestApp(t *testing.T) (*App, *walker.Session) {
	t.Helper()
	root, err := walker.New(spec.LevelMission, walker.WithGround(walker.AnnounceGround))
	if err != nil {
		t.Fatalf("new walker: %v", err)
	}
	router := bus.NewRouter()
	session := walker.NewSession(root, router.Observer())
	return NewApp(session, router), session
}

func executeGoal(t *testing.T, session *walker.Session) {
	t.Helper()
	rec := spec.New("company", "pursues", "expansion")
	rec.Set(spec.What, "expand into new markets")
	rec.Set(spec.Why, "board mandate")
	if _, err := session.Execute(rec); err != nil {
		t.Fatalf("execute: %v", err)
	}
}

func TestViewRendersDelegationTree(t *testing.T) {
	app, session := newTestApp(t)
	executeGoal(t, session)

	model, _ := app.Update(refreshMsg{snapshot: session.Progress()})
	app = model.(*App)

	view := app.View()
	if !strings.Contains(view, "STRATA") {
		t.Fatal("view missing header")
	}
	if !strings.Contains(view, "expand into new markets") {
		t.Fatal("view missing root objective")
	}
	if !strings.Contains(view, "Delegation Tree · 100%") {
		t.Fatalf("view missing completed progress:\n%s", view)
	}
	// One line per ladder tier.
	if got := strings.Count(view, "✓"); got < 6 {
		t.Fatalf("expected at least 6 completed nodes, saw %d", got)
	}
}

func TestEventMsgAppendsToPanel(t *testing.T) {
	app, _ := newTestApp(t)
	model, cmd := app.Update(eventMsg{
		event: bus.Event{TaskID: "task-x", Status: task.StatusRunning, Objective: "ship the release"},
		ok:    true,
	})
	app = model.(*App)
	if cmd == nil {
		t.Fatal("expected a follow-up wait command")
	}
	if len(app.events) != 1 {
		t.Fatalf("events = %d, want 1", len(app.events))
	}
	if !strings.Contains(app.View(), "ship the release") {
		t.Fatal("view missing event objective")
	}
}

func TestQuitKeyClosesSubscription(t *testing.T) {
	app, _ := newTestApp(t)
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Fatalf("expected tea.Quit, got %v", msg)
	}
}

func TestPauseKeyWithoutRunReportsError(t *testing.T) {
	app, _ := newTestApp(t)
	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	app = model.(*App)
	if !strings.Contains(app.statusMsg, "pause") {
		t.Fatalf("statusMsg = %q, want pause error", app.statusMsg)
	}
}

func TestResumeKeyWithNothingPaused(t *testing.T) {
	app, _ := newTestApp(t)
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	app = model.(*App)
	if cmd != nil {
		t.Fatal("expected no resume command when nothing is paused")
	}
	if app.statusMsg != "nothing to resume" {
		t.Fatalf("statusMsg = %q", app.statusMsg)
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	line := "✓ capability · déployer la solution"
	for width := 9; width < len([]rune(line)); width++ {
		got := truncate(line, width)
		if !utf8.ValidString(got) {
			t.Fatalf("width %d produced invalid UTF-8: %q", width, got)
		}
		if count := len([]rune(got)); count > width {
			t.Fatalf("width %d kept %d runes", width, count)
		}
		if !strings.HasSuffix(got, "…") {
			t.Fatalf("width %d missing ellipsis: %q", width, got)
		}
	}
	if got := truncate(line, 8); got != line {
		t.Fatalf("narrow panes must pass through, got %q", got)
	}
	if got := truncate("● short", 40); got != "● short" {
		t.Fatalf("lines within width must pass through, got %q", got)
	}
}
