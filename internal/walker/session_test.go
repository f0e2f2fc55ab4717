package walker

import (
	"errors"
	"fmt"
	"testing"

	"github.com/reedfield/strata/internal/spec"
	"github.com/reedfield/strata/internal/task"
)

// pausingPolicy generates one fixed strategy per request and fires a hook
// the first time it is asked to plan at the trigger tier.
type pausingPolicy struct {
	trigger spec.Level
	fired   bool
	onFire  func()
}

func (p *pausingPolicy) GenerateStrategies(rec *spec.Record, n int) []string {
	if level, ok := rec.Level(); ok && level == p.trigger && !p.fired {
		p.fired = true
		p.onFire()
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		what, _ := rec.Need(spec.What)
		out = append(out, fmt.Sprintf("%s / step %d", what, i+1))
	}
	return out
}

func (p *pausingPolicy) Validate(result any) Validation {
	if result == nil {
		return Validation{}
	}
	return Validation{Score: 1.0, Passed: true}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSessionExecuteCompletes(t *testing.T) {
	root, err := New(spec.LevelMission, WithGround(AnnounceGround))
	if err != nil {
		t.Fatalf("new walker: %v", err)
	}
	session := NewSession(root)

	result, err := session.Execute(missionRecord(t, "expand into new markets"))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result == nil {
		t.Fatal("execute returned no result")
	}
	if got := session.Task().Status(); got != task.StatusCompleted {
		t.Fatalf("root task %s, want completed", got)
	}
	// Each tier down got its own session and completed it.
	node, depth := session, 1
	for len(node.Children()) > 0 {
		node = node.Children()[0]
		depth++
		if got := node.Task().Status(); got != task.StatusCompleted {
			t.Fatalf("session at %s is %s, want completed", node.Walker().Level(), got)
		}
	}
	if depth != 6 {
		t.Fatalf("session chain depth = %d, want 6", depth)
	}
	if got := session.ProgressPercent(); got != 100.0 {
		t.Fatalf("progress = %v, want 100", got)
	}
}

func TestSessionPauseInterruptsAndResumeFinishes(t *testing.T) {
	var session *Session
	policy := &pausingPolicy{
		trigger: spec.LevelCapability,
		onFire:  func() { must(t, session.Pause()) },
	}
	root, err := New(spec.LevelMission, WithGround(AnnounceGround), WithPolicy(policy))
	if err != nil {
		t.Fatalf("new walker: %v", err)
	}
	session = NewSession(root)

	_, err = session.Execute(missionRecord(t, "expand into new markets"))
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("got %v, want ErrInterrupted", err)
	}
	if got := session.Task().Status(); got != task.StatusPaused {
		t.Fatalf("root task %s after pause, want paused", got)
	}

	result, err := session.Resume()
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if result == nil {
		t.Fatal("resume returned no result")
	}
	if got := session.Task().Status(); got != task.StatusCompleted {
		t.Fatalf("root task %s after resume, want completed", got)
	}
}

func TestSessionPortfolioPauseResumesAsPortfolio(t *testing.T) {
	var session *Session
	policy := &pausingPolicy{
		trigger: spec.LevelCapability,
		onFire:  func() { must(t, session.Pause()) },
	}
	root, err := New(spec.LevelMission, WithGround(AnnounceGround), WithPolicy(policy))
	if err != nil {
		t.Fatalf("new walker: %v", err)
	}
	session = NewSession(root)

	_, err = session.ExecutePortfolio(missionRecord(t, "expand into new markets"), 2)
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("got %v, want ErrInterrupted", err)
	}
	if got := session.Task().Status(); got != task.StatusPaused {
		t.Fatalf("root task %s after pause, want paused", got)
	}

	result, err := session.Resume()
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if result == nil {
		t.Fatal("resume returned no winning candidate")
	}
	if got := session.Task().Status(); got != task.StatusCompleted {
		t.Fatalf("root task %s after resume, want completed", got)
	}
}

func TestSessionPauseCascadeOrder(t *testing.T) {
	var log []string
	observer := func(u task.Update) {
		log = append(log, string(u.Status))
	}
	var session *Session
	policy := &pausingPolicy{
		trigger: spec.LevelCapability,
		onFire:  func() { must(t, session.Pause()) },
	}
	root, err := New(spec.LevelMission, WithGround(AnnounceGround), WithPolicy(policy))
	if err != nil {
		t.Fatalf("new walker: %v", err)
	}
	session = NewSession(root, observer)

	if _, err := session.Execute(missionRecord(t, "expand into new markets")); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("got %v, want ErrInterrupted", err)
	}

	// Four sessions were running when the pause fired. The coordinator
	// pauses before its delegates so no new work starts underneath it.
	var paused []string
	for _, entry := range log {
		if entry == string(task.StatusPaused) {
			paused = append(paused, entry)
		}
	}
	if len(paused) != 4 {
		t.Fatalf("saw %d pause notifications, want 4: %v", len(paused), log)
	}
	wantPrefix := []string{"running", "running", "running", "running", "paused", "paused", "paused", "paused"}
	for i, want := range wantPrefix {
		if i >= len(log) || log[i] != want {
			t.Fatalf("notification log = %v, want prefix %v", log, wantPrefix)
		}
	}
}

func TestSessionFailure(t *testing.T) {
	ground := GroundFunc(func(objective, purpose string) (any, error) {
		return nil, fmt.Errorf("tooling unavailable")
	})
	root, err := New(spec.LevelEnvironment, WithGround(ground))
	if err != nil {
		t.Fatalf("new walker: %v", err)
	}
	session := NewSession(root)

	rec := spec.New("agent", "performs", "deploy")
	rec.Set(spec.What, "deploy the build")
	if _, err := session.Execute(rec); err == nil {
		t.Fatal("expected ground failure to surface")
	}
	if got := session.Task().Status(); got != task.StatusFailed {
		t.Fatalf("task %s, want failed", got)
	}
	if got := session.ProgressPercent(); got != 0.0 {
		t.Fatalf("progress = %v, want 0", got)
	}
}

func TestSessionReplanKeepsPurpose(t *testing.T) {
	root, err := New(spec.LevelCapability)
	if err != nil {
		t.Fatalf("new walker: %v", err)
	}
	session := NewSession(root)
	rec := spec.New("team", "delivers", "release")
	rec.Set(spec.What, "ship via rolling deploy")
	rec.Set(spec.Why, "minimize customer downtime")
	root.adopt(rec)

	session.Replan("ship via blue-green deploy")

	what, _ := root.Context(spec.What)
	if what != "ship via blue-green deploy" {
		t.Fatalf("objective = %q after replan", what)
	}
	gotWhat, _ := root.Current().Need(spec.What)
	if gotWhat != "ship via blue-green deploy" {
		t.Fatalf("current record objective = %q after replan", gotWhat)
	}
	gotWhy, _ := root.Current().Need(spec.Why)
	if gotWhy != "minimize customer downtime" {
		t.Fatalf("replan changed the purpose: %q", gotWhy)
	}
}

func TestSessionProgressSnapshot(t *testing.T) {
	root, err := New(spec.LevelMission, WithGround(AnnounceGround))
	if err != nil {
		t.Fatalf("new walker: %v", err)
	}
	session := NewSession(root)
	if _, err := session.Execute(missionRecord(t, "expand into new markets")); err != nil {
		t.Fatalf("execute: %v", err)
	}

	snapshot := session.Progress()
	if snapshot.Level != spec.LevelMission {
		t.Fatalf("snapshot level = %s", snapshot.Level)
	}
	if snapshot.Status != task.StatusCompleted {
		t.Fatalf("snapshot status = %s", snapshot.Status)
	}
	if snapshot.What != "expand into new markets" {
		t.Fatalf("snapshot objective = %q", snapshot.What)
	}
	if snapshot.Percent != 100.0 {
		t.Fatalf("snapshot percent = %v", snapshot.Percent)
	}
	depth := 1
	for node := snapshot; len(node.Children) > 0; node = node.Children[0] {
		depth++
	}
	if depth != 6 {
		t.Fatalf("snapshot depth = %d, want 6", depth)
	}
}

func TestSessionRelease(t *testing.T) {
	root, err := New(spec.LevelCapability)
	if err != nil {
		t.Fatalf("new walker: %v", err)
	}
	session := NewSession(root)
	root.Workspace().Set("scratch", 1)

	session.Release()
	if got := session.Task().Status(); !got.IsTerminal() {
		t.Fatalf("released task is %s, want terminal", got)
	}
	if root.Workspace().Len() != 0 {
		t.Fatal("release left workspace entries")
	}
}
