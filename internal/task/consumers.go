package task

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kostyavrode/TaskFlow/internal/bus"
	"github.com/kostyavrode/TaskFlow/internal/contracts"
	apperrors "github.com/kostyavrode/TaskFlow/internal/errors"
	"github.com/kostyavrode/TaskFlow/internal/idempotency"
)

// Consumers advances the Task state machine from execution-side lifecycle
// events. Invalid transitions are logged and dropped, never redelivered:
// an already-terminal task silently ignores late or duplicate events.
type Consumers struct {
	repo   Repository
	logger *slog.Logger
}

// NewConsumers constructs the intake-side event consumers.
func NewConsumers(repo Repository, logger *slog.Logger) *Consumers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumers{repo: repo, logger: logger.With("component", "task_consumers")}
}

// Register subscribes the consumers on the gateway, each wrapped with the
// intake service's idempotency ledger.
func (c *Consumers) Register(gw bus.Gateway, ledger idempotency.Ledger) {
	gw.Subscribe(contracts.KindTaskStarted,
		idempotency.Idempotent("intake-task-started", ledger, c.logger, c.HandleStarted))
	gw.Subscribe(contracts.KindTaskCompleted,
		idempotency.Idempotent("intake-task-completed", ledger, c.logger, c.HandleCompleted))
	gw.Subscribe(contracts.KindTaskFailed,
		idempotency.Idempotent("intake-task-failed", ledger, c.logger, c.HandleFailed))
}

// HandleStarted marks the task Running.
func (c *Consumers) HandleStarted(ctx context.Context, evt contracts.Event) error {
	e, ok := evt.(*contracts.TaskStarted)
	if !ok {
		return nil
	}
	return c.apply(ctx, e.TaskID, "running", func(t *Task) error { return t.MarkRunning() })
}

// HandleCompleted marks the task Completed with the execution's result
// location.
func (c *Consumers) HandleCompleted(ctx context.Context, evt contracts.Event) error {
	e, ok := evt.(*contracts.TaskCompleted)
	if !ok {
		return nil
	}
	return c.apply(ctx, e.TaskID, "completed", func(t *Task) error {
		return t.MarkCompleted(e.ResultLocation)
	})
}

// HandleFailed marks the task Failed.
func (c *Consumers) HandleFailed(ctx context.Context, evt contracts.Event) error {
	e, ok := evt.(*contracts.TaskFailed)
	if !ok {
		return nil
	}
	return c.apply(ctx, e.TaskID, "failed", func(t *Task) error { return t.MarkFailed() })
}

func (c *Consumers) apply(ctx context.Context, taskID uuid.UUID, target string, transition func(*Task) error) error {
	t, err := c.repo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			c.logger.WarnContext(ctx, "task not found for lifecycle event", "task_id", taskID)
			return nil
		}
		return err
	}

	if err := transition(t); err != nil {
		if apperrors.Is(err, apperrors.ErrCodeInvalidTransition) {
			c.logger.WarnContext(ctx, "dropping lifecycle event for invalid transition",
				"task_id", taskID, "target", target, "status", t.Status, "error", err)
			return nil
		}
		return err
	}

	return c.repo.Update(ctx, nil, t)
}
