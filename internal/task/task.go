package task

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kostyavrode/TaskFlow/internal/errors"
)

// Status is the user-visible task lifecycle state.
type Status string

const (
	StatusCreated   Status = "Created"
	StatusPending   Status = "Pending"
	StatusRunning   Status = "Running"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
	StatusCancelled Status = "Cancelled"
)

// Task is the intake-owned aggregate. It is mutated only through its own
// transition methods; the execution service influences it exclusively via
// events. Tasks are never deleted: cancellation is a terminal status.
type Task struct {
	ID             uuid.UUID
	UserID         string
	Type           Type
	Priority       Priority
	Payload        string
	Status         Status
	ScheduledAt    *time.Time
	ResultLocation string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// New creates a task in Created status.
func New(userID string, typ Type, priority Priority, payload string, scheduledAt *time.Time) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        typ,
		Priority:    priority,
		Payload:     payload,
		Status:      StatusCreated,
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkPending moves Created → Pending.
func (t *Task) MarkPending() error {
	if t.Status != StatusCreated {
		return apperrors.InvalidTransitionf("cannot mark task as pending, current status: %s", t.Status)
	}
	t.transition(StatusPending)
	return nil
}

// MarkRunning moves Pending → Running.
func (t *Task) MarkRunning() error {
	if t.Status != StatusPending {
		return apperrors.InvalidTransitionf("cannot mark task as running, current status: %s", t.Status)
	}
	t.transition(StatusRunning)
	return nil
}

// MarkCompleted moves Running or Pending → Completed, recording where the
// result landed. Pending is allowed because the Completed event can overtake
// Started on the at-least-once transport.
func (t *Task) MarkCompleted(resultLocation string) error {
	if t.Status != StatusRunning && t.Status != StatusPending {
		return apperrors.InvalidTransitionf("cannot mark task as completed, current status: %s", t.Status)
	}
	t.ResultLocation = resultLocation
	t.transition(StatusCompleted)
	return nil
}

// MarkFailed moves any not-yet-terminal-success state → Failed.
func (t *Task) MarkFailed() error {
	if t.Status == StatusCancelled || t.Status == StatusCompleted {
		return apperrors.InvalidTransitionf("cannot mark task as failed, current status: %s", t.Status)
	}
	t.transition(StatusFailed)
	return nil
}

// Cancel moves the task to Cancelled. Completed and already-cancelled tasks
// reject the command with an explicit error.
func (t *Task) Cancel() error {
	switch t.Status {
	case StatusCancelled:
		return apperrors.InvalidTransitionf("task is already cancelled")
	case StatusCompleted:
		return apperrors.InvalidTransitionf("cannot cancel a completed task")
	default:
		t.transition(StatusCancelled)
		return nil
	}
}

// Terminal reports whether no further transitions can apply.
func (t *Task) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusCancelled
}

func (t *Task) transition(to Status) {
	t.Status = to
	t.UpdatedAt = time.Now().UTC()
}
