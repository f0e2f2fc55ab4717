// Package task implements the lifecycle wrapper bound to every delegation
// walker: a five-state machine with cascading pause/resume across the
// walker's subtree and observer notification on every transition.
package task

// Status enumerates task lifecycle states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanPause reports whether a pause transition is legal from this status.
func (s Status) CanPause() bool {
	return s == StatusRunning
}

// CanResume reports whether a resume transition is legal from this status.
func (s Status) CanResume() bool {
	return s == StatusPaused
}

// Update is the payload delivered to observers after every successful
// transition. Result and Err are nil unless the transition set them.
type Update struct {
	TaskID string
	Status Status
	Result any
	Err    error
	Meta   map[string]any
}

// Observer receives transition updates. Return values are not consulted;
// a panicking observer never prevents later observers from running.
type Observer func(Update)
