package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kostyavrode/TaskFlow/internal/bus"
	"github.com/kostyavrode/TaskFlow/internal/contracts"
	apperrors "github.com/kostyavrode/TaskFlow/internal/errors"
	"github.com/kostyavrode/TaskFlow/internal/idempotency"
)

// Consumers wires the execution service into the bus.
type Consumers struct {
	svc    *Service
	logger *slog.Logger
}

func NewConsumers(svc *Service, logger *slog.Logger) *Consumers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumers{svc: svc, logger: logger.With("component", "execution_consumers")}
}

// Register subscribes the execution handlers. The task signal consumer is
// idempotent so a redelivered message after a successful run does not start
// the work again; cancellation is safe to apply twice and stays plain.
func (c *Consumers) Register(gw bus.Gateway, ledger idempotency.Ledger) {
	gw.Subscribe(contracts.KindTaskCreated,
		idempotency.Idempotent("executor-task-created", ledger, c.logger, c.HandleCreated))
	gw.Subscribe(contracts.KindTaskCancelled, c.HandleCancelled)
}

func (c *Consumers) HandleCreated(ctx context.Context, evt contracts.Event) error {
	e, ok := evt.(*contracts.TaskCreated)
	if !ok {
		return fmt.Errorf("unexpected event type %T", evt)
	}
	if e.ScheduledAt != nil && e.ScheduledAt.After(time.Now().UTC()) {
		c.logger.InfoContext(ctx, "task scheduled for later, skipping",
			"task_id", e.TaskID, "scheduled_at", e.ScheduledAt)
		return nil
	}
	return c.svc.ProcessTask(ctx, *e)
}

func (c *Consumers) HandleCancelled(ctx context.Context, evt contracts.Event) error {
	e, ok := evt.(*contracts.TaskCancelled)
	if !ok {
		return fmt.Errorf("unexpected event type %T", evt)
	}
	err := c.svc.CancelTask(ctx, e.TaskID)
	switch {
	case err == nil:
		return nil
	case apperrors.Is(err, apperrors.ErrCodeInvalidTransition):
		c.logger.WarnContext(ctx, "cancellation rejected",
			"task_id", e.TaskID, "error", err)
		return nil
	case errors.Is(err, ErrRecordNotFound):
		c.logger.WarnContext(ctx, "cancellation for unknown task", "task_id", e.TaskID)
		return nil
	default:
		return err
	}
}
