package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kostyavrode/TaskFlow/internal/bus"
	"github.com/kostyavrode/TaskFlow/internal/contracts"
)

// Consumers translates every lifecycle event into a push notification.
// TaskCreated goes to the user channel only (no task watchers exist yet at
// that point); everything else fans out to both the user and task channels.
type Consumers struct {
	hub    Hub
	logger *slog.Logger
}

func NewConsumers(hub Hub, logger *slog.Logger) *Consumers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumers{hub: hub, logger: logger.With("component", "notification_consumers")}
}

func (c *Consumers) Register(gw bus.Gateway) {
	gw.Subscribe(contracts.KindTaskCreated, c.Handle)
	gw.Subscribe(contracts.KindTaskStarted, c.Handle)
	gw.Subscribe(contracts.KindTaskProgress, c.Handle)
	gw.Subscribe(contracts.KindTaskCompleted, c.Handle)
	gw.Subscribe(contracts.KindTaskFailed, c.Handle)
	gw.Subscribe(contracts.KindTaskCancelled, c.Handle)
}

// Handle builds the notification for any known event and delivers it. A hub
// error propagates so the bus redelivers; duplicate pushes are harmless.
func (c *Consumers) Handle(ctx context.Context, evt contracts.Event) error {
	n, userOnly, err := Build(evt)
	if err != nil {
		return err
	}
	if err := c.hub.NotifyUser(ctx, n); err != nil {
		return err
	}
	if userOnly {
		return nil
	}
	return c.hub.NotifyTask(ctx, n)
}

// Build maps an event to its notification payload. The second return marks
// notifications that only go to the user channel.
func Build(evt contracts.Event) (Notification, bool, error) {
	base := Notification{Timestamp: time.Now().UTC()}
	switch e := evt.(type) {
	case *contracts.TaskCreated:
		base.TaskID = e.TaskID
		base.UserID = e.UserID
		base.EventType = EventTaskCreated
		base.Status = "Pending"
		base.Message = fmt.Sprintf("Your %s task has been created and queued for processing.", e.TaskType)
		return base, true, nil
	case *contracts.TaskStarted:
		base.TaskID = e.TaskID
		base.UserID = e.UserID
		base.EventType = EventTaskStarted
		base.Status = "Running"
		base.Message = "Your task is now being processed."
		return base, false, nil
	case *contracts.TaskProgressUpdated:
		base.TaskID = e.TaskID
		base.UserID = e.UserID
		base.EventType = EventTaskProgress
		base.Status = "Running"
		percent := e.ProgressPercent
		base.ProgressPercent = &percent
		base.Message = fmt.Sprintf("%s (%d%%)", e.StatusMessage, e.ProgressPercent)
		return base, false, nil
	case *contracts.TaskCompleted:
		base.TaskID = e.TaskID
		base.UserID = e.UserID
		base.EventType = EventTaskCompleted
		base.Status = "Completed"
		base.ResultLocation = e.ResultLocation
		base.Message = fmt.Sprintf("Your task has completed successfully. Result available at %s.", e.ResultLocation)
		return base, false, nil
	case *contracts.TaskFailed:
		base.TaskID = e.TaskID
		base.UserID = e.UserID
		base.EventType = EventTaskFailed
		base.Status = "Failed"
		base.ErrorMessage = e.ErrorMessage
		base.Message = fmt.Sprintf("Your task failed after %d retries: %s", e.RetryCount, e.ErrorMessage)
		return base, false, nil
	case *contracts.TaskCancelled:
		base.TaskID = e.TaskID
		base.UserID = e.UserID
		base.EventType = EventTaskCancelled
		base.Status = "Cancelled"
		base.Message = "Your task has been cancelled."
		return base, false, nil
	default:
		return Notification{}, false, fmt.Errorf("unexpected event type %T", evt)
	}
}
