package task

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// TransitionError reports a lifecycle operation invoked from a state that
// does not permit it. The task's status is left unchanged.
type TransitionError struct {
	Op   string
	From Status
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("task: cannot %s from %s state", e.Op, e.From)
}

// Task tracks the lifecycle of one delegation walker. Tasks form the same
// tree as their walkers: the parent reference is used only for upward
// lookups, the child list drives pause/resume cascades.
//
// All transitions are serialized by a per-task mutex so a cascade cannot
// interleave with an in-flight traversal on the same subtree.
type Task struct {
	id string

	mu        sync.Mutex
	status    Status
	result    any
	err       error
	meta      map[string]any
	parent    *Task
	children  []*Task
	observers []Observer
}

// New creates a pending task. When parent is non-nil the task registers
// itself as a child so cascades reach it.
func New(id string, parent *Task) *Task {
	if id == "" {
		id = "task-" + uuid.NewString()[:8]
	}
	t := &Task{
		id:     id,
		status: StatusPending,
		parent: parent,
	}
	if parent != nil {
		parent.addChild(t)
	}
	return t
}

// ID returns the task identifier.
func (t *Task) ID() string {
	return t.id
}

// Status returns the current lifecycle state.
func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Result returns the success result; ok is false until the task completes.
func (t *Task) Result() (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.status == StatusCompleted
}

// Err returns the failure recorded by Fail, or nil.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Parent returns the parent task, or nil at the root.
func (t *Task) Parent() *Task {
	return t.parent
}

// Children returns a snapshot of the ordered child list.
func (t *Task) Children() []*Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Task, len(t.children))
	copy(out, t.children)
	return out
}

func (t *Task) addChild(child *Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, existing := range t.children {
		if existing == child {
			return
		}
	}
	t.children = append(t.children, child)
}

// Annotate attaches a metadata value carried on every subsequent observer
// update, identifying the task's walker to downstream consumers.
func (t *Task) Annotate(key string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.meta == nil {
		t.meta = map[string]any{}
	}
	t.meta[key] = value
}

// Observe registers an observer. Observers are notified in registration
// order on every successful transition.
func (t *Task) Observe(fn Observer) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, fn)
}

// Start moves the task from pending to running.
func (t *Task) Start() error {
	t.mu.Lock()
	if t.status != StatusPending {
		from := t.status
		t.mu.Unlock()
		return &TransitionError{Op: "start", From: from}
	}
	t.status = StatusRunning
	update, observers := t.updateLocked()
	t.mu.Unlock()
	notifyAll(observers, update)
	return nil
}

// Pause moves a running task to paused and cascades the pause to every
// running descendant, parent first: the coordinator stops dispatching
// before its in-flight workers are interrupted.
func (t *Task) Pause() error {
	t.mu.Lock()
	if !t.status.CanPause() {
		from := t.status
		t.mu.Unlock()
		return &TransitionError{Op: "pause", From: from}
	}
	t.status = StatusPaused
	update, observers := t.updateLocked()
	children := make([]*Task, len(t.children))
	copy(children, t.children)
	t.mu.Unlock()
	notifyAll(observers, update)
	for _, child := range children {
		if child.Status().CanPause() {
			// Descendant pause failures cannot happen after the CanPause
			// check short of a concurrent transition; ignore the race loser.
			_ = child.Pause()
		}
	}
	return nil
}

// Resume moves a paused task back to running, bottom-up: every paused
// descendant is resumed before this task reports running, so a coordinator
// never dispatches to a child that is not yet ready.
func (t *Task) Resume() error {
	t.mu.Lock()
	if !t.status.CanResume() {
		from := t.status
		t.mu.Unlock()
		return &TransitionError{Op: "resume", From: from}
	}
	children := make([]*Task, len(t.children))
	copy(children, t.children)
	t.mu.Unlock()

	for _, child := range children {
		if child.Status().CanResume() {
			if err := child.Resume(); err != nil {
				return err
			}
		}
	}

	t.mu.Lock()
	if !t.status.CanResume() {
		from := t.status
		t.mu.Unlock()
		return &TransitionError{Op: "resume", From: from}
	}
	t.status = StatusRunning
	update, observers := t.updateLocked()
	t.mu.Unlock()
	notifyAll(observers, update)
	return nil
}

// Complete moves a running task to the completed terminal state.
func (t *Task) Complete(result any) error {
	t.mu.Lock()
	if t.status != StatusRunning {
		from := t.status
		t.mu.Unlock()
		return &TransitionError{Op: "complete", From: from}
	}
	t.status = StatusCompleted
	t.result = result
	update, observers := t.updateLocked()
	t.mu.Unlock()
	notifyAll(observers, update)
	return nil
}

// Fail moves a running or paused task to the failed terminal state.
func (t *Task) Fail(cause error) error {
	t.mu.Lock()
	if t.status != StatusRunning && t.status != StatusPaused {
		from := t.status
		t.mu.Unlock()
		return &TransitionError{Op: "fail", From: from}
	}
	t.status = StatusFailed
	t.err = cause
	update, observers := t.updateLocked()
	t.mu.Unlock()
	notifyAll(observers, update)
	return nil
}

// updateLocked builds the observer payload while t.mu is held.
func (t *Task) updateLocked() (Update, []Observer) {
	update := Update{
		TaskID: t.id,
		Status: t.status,
		Result: t.result,
		Err:    t.err,
	}
	if len(t.meta) > 0 {
		update.Meta = make(map[string]any, len(t.meta))
		for k, v := range t.meta {
			update.Meta[k] = v
		}
	}
	observers := make([]Observer, len(t.observers))
	copy(observers, t.observers)
	return update, observers
}

func notifyAll(observers []Observer, update Update) {
	for _, fn := range observers {
		notifyOne(fn, update)
	}
}

// notifyOne isolates observer panics so one misbehaving observer cannot
// starve the rest of the registration list.
func notifyOne(fn Observer, update Update) {
	defer func() {
		_ = recover()
	}()
	fn(update)
}
