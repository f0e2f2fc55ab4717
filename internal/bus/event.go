// Package bus fans delegation lifecycle events out to in-process
// subscribers. The walker tree publishes through a task observer; consumers
// such as the terminal view and the journal subscribe by task ID or to the
// whole stream.
package bus

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reedfield/strata/internal/spec"
	"github.com/reedfield/strata/internal/task"
)

// TopicAll subscribes to every task's events.
const TopicAll = "*"

// Event is one delegation lifecycle notification.
type Event struct {
	EventID   string      `json:"event_id"`
	TaskID    string      `json:"task_id"`
	WalkerID  string      `json:"walker_id,omitempty"`
	Level     spec.Level  `json:"level,omitempty"`
	Status    task.Status `json:"status"`
	Objective string      `json:"objective,omitempty"`
	Purpose   string      `json:"purpose,omitempty"`
	Detail    string      `json:"detail,omitempty"`
	Time      time.Time   `json:"time"`
}

// Normalize applies defaults and canonical formatting.
func (e *Event) Normalize() {
	if e == nil {
		return
	}
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	e.TaskID = strings.TrimSpace(e.TaskID)
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
}

// Terminal reports whether the event describes a final task state. Terminal
// events are never the first choice when a subscriber queue overflows.
func (e Event) Terminal() bool {
	return e.Status.IsTerminal()
}

// Logger records drop diagnostics. It matches logging.Logger's signature.
type Logger interface {
	Printf(format string, args ...any)
}

// FromUpdate translates a task lifecycle update into a bus event.
func FromUpdate(u task.Update) Event {
	e := Event{
		TaskID: u.TaskID,
		Status: u.Status,
	}
	if u.Err != nil {
		e.Detail = u.Err.Error()
	}
	if u.Meta != nil {
		if v, ok := u.Meta["walker_id"].(string); ok {
			e.WalkerID = v
		}
		if v, ok := u.Meta["level"].(spec.Level); ok {
			e.Level = v
		}
		if v, ok := u.Meta["objective"].(string); ok {
			e.Objective = v
		}
		if v, ok := u.Meta["purpose"].(string); ok {
			e.Purpose = v
		}
	}
	e.Normalize()
	return e
}
