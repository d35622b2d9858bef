// Package notification turns task lifecycle events into user-facing push
// messages. Delivery is fire and forget over Redis pub/sub channels; there
// is no persistence and no idempotency ledger here, a duplicate push is a
// duplicate toast at worst.
package notification

import (
	"time"

	"github.com/google/uuid"
)

// EventType labels the lifecycle moment a notification describes.
type EventType string

const (
	EventTaskCreated   EventType = "TaskCreated"
	EventTaskStarted   EventType = "TaskStarted"
	EventTaskProgress  EventType = "TaskProgress"
	EventTaskCompleted EventType = "TaskCompleted"
	EventTaskFailed    EventType = "TaskFailed"
	EventTaskCancelled EventType = "TaskCancelled"
)

// Notification is the push payload delivered to subscribers.
type Notification struct {
	TaskID          uuid.UUID `json:"taskId"`
	UserID          string    `json:"userId"`
	EventType       EventType `json:"eventType"`
	Status          string    `json:"status,omitempty"`
	ProgressPercent *int      `json:"progressPercent,omitempty"`
	Message         string    `json:"message"`
	ResultLocation  string    `json:"resultLocation,omitempty"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}
