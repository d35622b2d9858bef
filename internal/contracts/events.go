// Package contracts defines the immutable event shapes exchanged between the
// TaskFlow services. Every event carries an identity, a timestamp and a
// correlation id threading one causal chain across service boundaries.
package contracts

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the wire-level discriminator for an event. It is stable and must
// never change for a published event shape.
type Kind string

const (
	// KindTaskCreated announces a newly accepted task.
	KindTaskCreated Kind = "task.created"
	// KindTaskStarted announces that execution of a task began.
	KindTaskStarted Kind = "task.started"
	// KindTaskProgress announces a fine-grained progress report.
	KindTaskProgress Kind = "task.progress"
	// KindTaskCompleted announces successful completion with a result location.
	KindTaskCompleted Kind = "task.completed"
	// KindTaskFailed announces a failed execution attempt.
	KindTaskFailed Kind = "task.failed"
	// KindTaskCancelled announces a user-initiated cancellation.
	KindTaskCancelled Kind = "task.cancelled"
)

// Meta carries the fields common to every event. Concrete events embed it.
type Meta struct {
	EventID       uuid.UUID `json:"eventId"`
	OccurredAt    time.Time `json:"occurredAt"`
	CorrelationID string    `json:"correlationId"`
}

// NewMeta stamps a fresh event identity with the given correlation id.
func NewMeta(correlationID string) Meta {
	return Meta{
		EventID:       uuid.New(),
		OccurredAt:    time.Now().UTC(),
		CorrelationID: correlationID,
	}
}

// EventMeta returns the common event fields. Embedding Meta satisfies the
// Event interface's metadata accessor for every concrete event.
func (m Meta) EventMeta() Meta { return m }

// Event is implemented by every concrete event kind.
type Event interface {
	Kind() Kind
	EventMeta() Meta
}

// TaskCreated is emitted by the intake service when a task is accepted.
type TaskCreated struct {
	Meta
	TaskID      uuid.UUID  `json:"taskId"`
	UserID      string     `json:"userId"`
	TaskType    string     `json:"taskType"`
	Priority    string     `json:"priority"`
	Payload     string     `json:"payload,omitempty"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
}

// Kind implements Event.
func (TaskCreated) Kind() Kind { return KindTaskCreated }

// TaskStarted is emitted by the execution service when an attempt begins.
type TaskStarted struct {
	Meta
	TaskID    uuid.UUID `json:"taskId"`
	UserID    string    `json:"userId"`
	StartedAt time.Time `json:"startedAt"`
}

// Kind implements Event.
func (TaskStarted) Kind() Kind { return KindTaskStarted }

// TaskProgressUpdated is emitted once per progress report from a task handler.
type TaskProgressUpdated struct {
	Meta
	TaskID          uuid.UUID `json:"taskId"`
	UserID          string    `json:"userId"`
	ProgressPercent int       `json:"progressPercent"`
	StatusMessage   string    `json:"statusMessage,omitempty"`
}

// Kind implements Event.
func (TaskProgressUpdated) Kind() Kind { return KindTaskProgress }

// TaskCompleted is emitted when an execution attempt succeeds.
type TaskCompleted struct {
	Meta
	TaskID         uuid.UUID `json:"taskId"`
	UserID         string    `json:"userId"`
	ResultLocation string    `json:"resultLocation,omitempty"`
	CompletedAt    time.Time `json:"completedAt"`
}

// Kind implements Event.
func (TaskCompleted) Kind() Kind { return KindTaskCompleted }

// TaskFailed is emitted when an execution attempt fails. RetryCount reflects
// the attempt counter at the time of failure.
type TaskFailed struct {
	Meta
	TaskID       uuid.UUID `json:"taskId"`
	UserID       string    `json:"userId"`
	ErrorMessage string    `json:"errorMessage"`
	ErrorDetails string    `json:"errorDetails,omitempty"`
	RetryCount   int       `json:"retryCount"`
	FailedAt     time.Time `json:"failedAt"`
}

// Kind implements Event.
func (TaskFailed) Kind() Kind { return KindTaskFailed }

// TaskCancelled is emitted by the intake service on user cancellation.
type TaskCancelled struct {
	Meta
	TaskID      uuid.UUID `json:"taskId"`
	UserID      string    `json:"userId"`
	CancelledAt time.Time `json:"cancelledAt"`
}

// Kind implements Event.
func (TaskCancelled) Kind() Kind { return KindTaskCancelled }
