package walker

import (
	"errors"
	"fmt"
	"sync"

	"github.com/reedfield/strata/internal/spec"
	"github.com/reedfield/strata/internal/task"
)

// ErrInterrupted is returned from an execution that observed a pause
// request at a delegation boundary. The in-flight record is saved so the
// session can continue from the same point on resume.
var ErrInterrupted = errors.New("walker: execution interrupted")

// Session binds a walker subtree to lifecycle tasks. Every walker spawned
// during a session's execution gets its own child session and task, so
// pausing any node cascades through the live subtree and the objective
// chain survives the interruption intact.
type Session struct {
	mu       sync.Mutex
	walker   *Walker
	task     *task.Task
	parent   *Session
	children []*Session
	paused   *spec.Record
	// pausedWidth remembers whether the interrupted run was a portfolio
	// so Resume re-enters the same mode.
	pausedWidth int
	result      any
}

// NewSession wraps a root walker in a lifecycle session. Observers are
// registered on the root task and on every descendant task created while
// the session executes.
func NewSession(w *Walker, observers ...task.Observer) *Session {
	return newSession(w, nil, observers)
}

func newSession(w *Walker, parent *Session, observers []task.Observer) *Session {
	var parentTask *task.Task
	if parent != nil {
		parentTask = parent.task
	}
	s := &Session{
		walker: w,
		task:   task.New("task-"+w.ID(), parentTask),
		parent: parent,
	}
	s.task.Annotate("walker_id", w.ID())
	s.task.Annotate("level", w.Level())
	for _, fn := range observers {
		s.task.Observe(fn)
	}
	w.descend = func(child *Walker, rec *spec.Record) (any, error) {
		return s.runChild(child, rec, observers)
	}
	if parent != nil {
		parent.mu.Lock()
		parent.children = append(parent.children, s)
		parent.mu.Unlock()
	}
	return s
}

// runChild gives a freshly spawned walker its own session before executing
// it. A pause observed here interrupts the traversal at the delegation
// boundary instead of letting new work start under a paused coordinator.
func (s *Session) runChild(child *Walker, rec *spec.Record, observers []task.Observer) (any, error) {
	if s.task.Status() == task.StatusPaused {
		return nil, ErrInterrupted
	}
	childSession := newSession(child, s, observers)
	return childSession.Execute(rec)
}

// Walker returns the session's walker.
func (s *Session) Walker() *Walker { return s.walker }

// Task returns the session's lifecycle task.
func (s *Session) Task() *task.Task { return s.task }

// Children returns a snapshot of the child sessions in spawn order.
func (s *Session) Children() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, len(s.children))
	copy(out, s.children)
	return out
}

// Execute traverses the record under lifecycle tracking: the task starts
// before the walk, completes with its result, fails with its error, and
// pauses (preserving the in-flight record) when the walk is interrupted.
func (s *Session) Execute(rec *spec.Record) (any, error) {
	return s.run(rec, 0)
}

// ExecutePortfolio explores n candidate strategies under lifecycle
// tracking, with the same pause and failure semantics as Execute. Each
// candidate runs as its own child session.
func (s *Session) ExecutePortfolio(rec *spec.Record, n int) (any, error) {
	return s.run(rec, n)
}

// run wraps a traversal (width 0) or a portfolio (width > 0) in the
// session's lifecycle.
func (s *Session) run(rec *spec.Record, width int) (any, error) {
	if rec != nil {
		if what, ok := rec.Need(spec.What); ok {
			s.task.Annotate("objective", what)
		}
		if why, ok := rec.Need(spec.Why); ok {
			s.task.Annotate("purpose", why)
		}
	}
	if s.task.Status() == task.StatusPending {
		if err := s.task.Start(); err != nil {
			return nil, err
		}
	}
	var (
		result any
		err    error
	)
	if width > 0 {
		result, err = s.walker.ExecutePortfolio(rec, width)
	} else {
		result, err = s.walker.Traverse(rec)
	}
	if err != nil {
		if errors.Is(err, ErrInterrupted) {
			s.mu.Lock()
			s.paused = rec
			s.pausedWidth = width
			s.mu.Unlock()
			// The cascade may already have paused this task; that race
			// loser is fine, the subtree ends up paused either way.
			_ = s.task.Pause()
			return nil, err
		}
		_ = s.task.Fail(err)
		return nil, err
	}
	if s.task.Status() == task.StatusRunning {
		if err := s.task.Complete(result); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	s.result = result
	s.mu.Unlock()
	return result, nil
}

// Pause gracefully pauses this session's task and, by cascade, every
// running descendant. The objective chain and workspaces stay intact.
func (s *Session) Pause() error {
	return s.task.Pause()
}

// Resume resumes the task tree bottom-up and, when the session holds an
// interrupted record, re-executes from that saved point.
func (s *Session) Resume() (any, error) {
	if err := s.task.Resume(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	saved := s.paused
	width := s.pausedWidth
	s.paused = nil
	s.pausedWidth = 0
	result := s.result
	s.mu.Unlock()
	if saved != nil {
		return s.run(saved, width)
	}
	return result, nil
}

// Replan swaps the walker's objective while keeping its purpose, enabling
// a different approach toward the same motivating goal after a pause.
func (s *Session) Replan(objective string) {
	s.walker.AddContext(spec.What, objective)
	if current := s.walker.Current(); current != nil {
		dims := current.Dimensions()
		dims[spec.What] = objective
		s.walker.current = current.CopyWith(spec.Overrides{Dimensions: dims})
	}
}

// Release abandons the session: the walker subtree is released eagerly and
// a still-active task is failed so observers see a terminal state.
func (s *Session) Release() {
	status := s.task.Status()
	if !status.IsTerminal() {
		if status == task.StatusPending {
			_ = s.task.Start()
		}
		_ = s.task.Fail(fmt.Errorf("walker: session released"))
	}
	s.walker.Release()
}

// Progress is a point-in-time snapshot of a session subtree.
type Progress struct {
	WalkerID   string
	TaskID     string
	Level      spec.Level
	Status     task.Status
	What       string
	Why        string
	Provenance []string
	Percent    float64
	Children   []Progress
}

// Progress reports the session's execution state, including the full
// provenance chain and recursive child snapshots. Purely a read.
func (s *Session) Progress() Progress {
	what, _ := s.walker.Context(spec.What)
	why, _ := s.walker.Context(spec.Why)
	snapshot := Progress{
		WalkerID:   s.walker.ID(),
		TaskID:     s.task.ID(),
		Level:      s.walker.Level(),
		Status:     s.task.Status(),
		What:       what,
		Why:        why,
		Provenance: s.walker.TraceProvenance(),
		Percent:    s.ProgressPercent(),
	}
	for _, child := range s.Children() {
		snapshot.Children = append(snapshot.Children, child.Progress())
	}
	return snapshot
}

// ProgressPercent estimates completion: terminal states are absolute,
// leaves report half credit while running, and interior sessions average
// their children.
func (s *Session) ProgressPercent() float64 {
	switch s.task.Status() {
	case task.StatusCompleted:
		return 100.0
	case task.StatusFailed:
		return 0.0
	}
	children := s.Children()
	if len(children) == 0 {
		if s.task.Status() == task.StatusRunning {
			return 50.0
		}
		return 0.0
	}
	total := 0.0
	for _, child := range children {
		total += child.ProgressPercent()
	}
	return total / float64(len(children))
}
