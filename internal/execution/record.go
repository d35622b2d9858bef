// Package execution owns the execution-side lifecycle: the ExecutionRecord
// state machine, its bounded retry loop, type-dispatched task handlers and
// fine-grained progress reporting. It is correlated with the intake service's
// Task only by TaskId, kept consistent purely through events.
package execution

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kostyavrode/TaskFlow/internal/errors"
)

// Status is the execution-side lifecycle state.
type Status string

const (
	StatusQueued    Status = "Queued"
	StatusRunning   Status = "Running"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
	StatusCancelled Status = "Cancelled"
)

// Record tracks one task's execution attempts. Exactly one record exists per
// TaskId; retries reset it in place rather than creating a sibling.
type Record struct {
	ID              uuid.UUID
	TaskID          uuid.UUID
	UserID          string
	TaskType        string
	Priority        string
	Payload         string
	Status          Status
	ProgressPercent int
	StatusMessage   string
	ResultLocation  string
	ErrorMessage    string
	RetryCount      int
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CorrelationID   string
}

// NewRecord creates a Queued record for a fresh task signal.
func NewRecord(taskID uuid.UUID, userID, taskType, priority, payload, correlationID string) *Record {
	return &Record{
		ID:            uuid.New(),
		TaskID:        taskID,
		UserID:        userID,
		TaskType:      taskType,
		Priority:      priority,
		Payload:       payload,
		Status:        StatusQueued,
		CreatedAt:     time.Now().UTC(),
		CorrelationID: correlationID,
	}
}

// Start moves Queued → Running and stamps StartedAt.
func (r *Record) Start() error {
	if r.Status != StatusQueued {
		return apperrors.InvalidTransitionf("cannot start execution in %s status", r.Status)
	}
	now := time.Now().UTC()
	r.Status = StatusRunning
	r.StartedAt = &now
	r.ProgressPercent = 0
	return nil
}

// UpdateProgress records a report from the running handler. Percent is
// clamped to [0, 100].
func (r *Record) UpdateProgress(percent int, message string) error {
	if r.Status != StatusRunning {
		return apperrors.InvalidTransitionf("cannot update progress in %s status", r.Status)
	}
	r.ProgressPercent = clampPercent(percent)
	r.StatusMessage = message
	return nil
}

// Complete moves Running → Completed with the result location; progress
// clamps to 100.
func (r *Record) Complete(resultLocation string) error {
	if r.Status != StatusRunning {
		return apperrors.InvalidTransitionf("cannot complete execution in %s status", r.Status)
	}
	now := time.Now().UTC()
	r.Status = StatusCompleted
	r.ProgressPercent = 100
	r.ResultLocation = resultLocation
	r.CompletedAt = &now
	return nil
}

// Fail records a failed attempt. Unlike the other transitions it applies
// from any state: a failure observed mid-flight always lands.
func (r *Record) Fail(errorMessage string) {
	now := time.Now().UTC()
	r.Status = StatusFailed
	r.ErrorMessage = errorMessage
	r.CompletedAt = &now
}

// Cancel moves the record to Cancelled; completed executions reject it.
func (r *Record) Cancel() error {
	if r.Status == StatusCompleted {
		return apperrors.InvalidTransitionf("cannot cancel completed execution")
	}
	now := time.Now().UTC()
	r.Status = StatusCancelled
	r.CompletedAt = &now
	return nil
}

// CanRetry reports whether another attempt is allowed: only Failed records
// below the retry ceiling re-enter the loop.
func (r *Record) CanRetry(maxRetries int) bool {
	return r.Status == StatusFailed && r.RetryCount < maxRetries
}

// IncrementRetry bumps the attempt counter.
func (r *Record) IncrementRetry() {
	r.RetryCount++
}

// ResetForRetry clears the transient attempt state and re-queues the record.
func (r *Record) ResetForRetry() error {
	if r.Status != StatusFailed {
		return apperrors.InvalidTransitionf("cannot retry execution in %s status", r.Status)
	}
	r.Status = StatusQueued
	r.StartedAt = nil
	r.CompletedAt = nil
	r.ErrorMessage = ""
	r.ProgressPercent = 0
	return nil
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
