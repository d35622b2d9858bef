package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kostyavrode/TaskFlow/internal/contracts"
)

// Publisher pushes lifecycle events out to the bus.
type Publisher interface {
	Publish(ctx context.Context, evt contracts.Event) error
}

// ServiceOptions configures the execution service.
type ServiceOptions struct {
	Repo       Repository
	Registry   *Registry
	Bus        Publisher
	MaxRetries int
	Logger     *slog.Logger
}

// Service runs task executions end to end: it materializes an execution
// record for each task signal, dispatches to the type handler, streams
// progress, and publishes the terminal event. Failed runs return an error so
// the bus redelivers; the record's retry counter bounds how many redeliveries
// re-enter the loop.
type Service struct {
	repo       Repository
	registry   *Registry
	bus        Publisher
	maxRetries int
	logger     *slog.Logger

	mu      sync.Mutex
	running map[uuid.UUID]context.CancelFunc
}

func NewService(opts ServiceOptions) *Service {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		repo:       opts.Repo,
		registry:   opts.Registry,
		bus:        opts.Bus,
		maxRetries: opts.MaxRetries,
		logger:     opts.Logger.With("component", "execution_service"),
		running:    make(map[uuid.UUID]context.CancelFunc),
	}
}

// ProcessTask executes one task signal. A returned error asks the bus to
// redeliver; returning nil acknowledges the message for good.
func (s *Service) ProcessTask(ctx context.Context, evt contracts.TaskCreated) error {
	rec, err := s.prepareRecord(ctx, evt)
	if err != nil {
		return err
	}
	if rec == nil {
		// Retry budget exhausted or record in a terminal state; drop.
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.trackRunning(rec.TaskID, cancel)
	defer s.untrackRunning(rec.TaskID)
	defer cancel()

	if err := rec.Start(); err != nil {
		s.logger.WarnContext(ctx, "execution not startable", "task_id", rec.TaskID, "error", err)
		return nil
	}
	if err := s.repo.Update(ctx, nil, rec); err != nil {
		return fmt.Errorf("persist running execution: %w", err)
	}
	s.publish(ctx, contracts.TaskStarted{
		Meta:      contracts.NewMeta(rec.CorrelationID),
		TaskID:    rec.TaskID,
		UserID:    rec.UserID,
		StartedAt: *rec.StartedAt,
	})

	handler, ok := s.registry.Resolve(rec.TaskType)
	if !ok {
		rec.Fail(fmt.Sprintf("no handler for task type %q", rec.TaskType))
		if err := s.repo.Update(ctx, nil, rec); err != nil {
			s.logger.ErrorContext(ctx, "persist failed execution", "task_id", rec.TaskID, "error", err)
		}
		s.publishFailed(ctx, rec, "")
		return nil
	}

	progress := make(chan Progress, 16)
	drained := make(chan struct{})
	go s.drainProgress(runCtx, rec.TaskID, progress, drained)

	result, runErr := handler.Handle(runCtx, rec, progress)
	close(progress)
	<-drained

	// Re-read so progress updates persisted by the drain goroutine are not
	// clobbered by the terminal write.
	rec, err = s.repo.GetByTaskID(ctx, rec.TaskID)
	if err != nil {
		return fmt.Errorf("reload execution record: %w", err)
	}

	switch {
	case runErr == nil:
		if err := rec.Complete(result.Location); err != nil {
			// A cancellation landed while the handler was finishing.
			s.logger.WarnContext(ctx, "execution finished in non-running state",
				"task_id", rec.TaskID, "status", rec.Status)
			return nil
		}
		if err := s.repo.Update(ctx, nil, rec); err != nil {
			return fmt.Errorf("persist completed execution: %w", err)
		}
		s.publish(ctx, contracts.TaskCompleted{
			Meta:           contracts.NewMeta(rec.CorrelationID),
			TaskID:         rec.TaskID,
			UserID:         rec.UserID,
			ResultLocation: rec.ResultLocation,
			CompletedAt:    *rec.CompletedAt,
		})
		s.logger.InfoContext(ctx, "execution completed",
			"task_id", rec.TaskID, "result_location", rec.ResultLocation)
		return nil

	case errors.Is(runErr, context.Canceled):
		if err := rec.Cancel(); err == nil {
			if uerr := s.repo.Update(ctx, nil, rec); uerr != nil {
				s.logger.ErrorContext(ctx, "persist cancelled execution",
					"task_id", rec.TaskID, "error", uerr)
			}
		}
		s.logger.InfoContext(ctx, "execution cancelled", "task_id", rec.TaskID)
		return nil

	default:
		rec.Fail(runErr.Error())
		if err := s.repo.Update(ctx, nil, rec); err != nil {
			s.logger.ErrorContext(ctx, "persist failed execution", "task_id", rec.TaskID, "error", err)
		}
		s.publishFailed(ctx, rec, fmt.Sprintf("%T: %v", runErr, runErr))
		s.logger.WarnContext(ctx, "execution failed",
			"task_id", rec.TaskID, "retry_count", rec.RetryCount, "error", runErr)
		return fmt.Errorf("execute task %s: %w", rec.TaskID, runErr)
	}
}

// prepareRecord returns the record ready for an attempt, or nil when the
// signal should be dropped.
func (s *Service) prepareRecord(ctx context.Context, evt contracts.TaskCreated) (*Record, error) {
	rec, err := s.repo.GetByTaskID(ctx, evt.TaskID)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		rec = NewRecord(evt.TaskID, evt.UserID, evt.TaskType, evt.Priority, evt.Payload,
			evt.EventMeta().CorrelationID)
		if err := s.repo.Create(ctx, nil, rec); err != nil {
			return nil, fmt.Errorf("create execution record: %w", err)
		}
		return rec, nil
	case err != nil:
		return nil, fmt.Errorf("load execution record: %w", err)
	}

	if !rec.CanRetry(s.maxRetries) {
		s.logger.WarnContext(ctx, "dropping redelivered task",
			"task_id", rec.TaskID, "status", rec.Status, "retry_count", rec.RetryCount)
		return nil, nil
	}
	if err := rec.ResetForRetry(); err != nil {
		return nil, err
	}
	rec.IncrementRetry()
	if err := s.repo.Update(ctx, nil, rec); err != nil {
		return nil, fmt.Errorf("persist retry reset: %w", err)
	}
	s.logger.InfoContext(ctx, "retrying execution",
		"task_id", rec.TaskID, "retry_count", rec.RetryCount)
	return rec, nil
}

// CancelTask stops a running execution cooperatively and marks the record
// Cancelled. Completed executions reject the cancellation.
func (s *Service) CancelTask(ctx context.Context, taskID uuid.UUID) error {
	s.mu.Lock()
	cancel, active := s.running[taskID]
	s.mu.Unlock()
	if active {
		cancel()
		// The running attempt persists the Cancelled state itself.
		return nil
	}

	rec, err := s.repo.GetByTaskID(ctx, taskID)
	if err != nil {
		return err
	}
	if err := rec.Cancel(); err != nil {
		return err
	}
	return s.repo.Update(ctx, nil, rec)
}

func (s *Service) drainProgress(ctx context.Context, taskID uuid.UUID, progress <-chan Progress, done chan<- struct{}) {
	defer close(done)
	for p := range progress {
		rec, err := s.repo.GetByTaskID(ctx, taskID)
		if err != nil {
			s.logger.WarnContext(ctx, "progress lookup failed", "task_id", taskID, "error", err)
			continue
		}
		if err := rec.UpdateProgress(p.Percent, p.Message); err != nil {
			continue
		}
		if err := s.repo.Update(ctx, nil, rec); err != nil {
			s.logger.WarnContext(ctx, "progress persist failed", "task_id", taskID, "error", err)
			continue
		}
		s.publish(ctx, contracts.TaskProgressUpdated{
			Meta:            contracts.NewMeta(rec.CorrelationID),
			TaskID:          rec.TaskID,
			UserID:          rec.UserID,
			ProgressPercent: rec.ProgressPercent,
			StatusMessage:   rec.StatusMessage,
		})
	}
}

func (s *Service) publishFailed(ctx context.Context, rec *Record, details string) {
	failedAt := time.Now().UTC()
	if rec.CompletedAt != nil {
		failedAt = *rec.CompletedAt
	}
	s.publish(ctx, contracts.TaskFailed{
		Meta:         contracts.NewMeta(rec.CorrelationID),
		TaskID:       rec.TaskID,
		UserID:       rec.UserID,
		ErrorMessage: rec.ErrorMessage,
		ErrorDetails: details,
		RetryCount:   rec.RetryCount,
		FailedAt:     failedAt,
	})
}

// publish sends an event and logs failures without aborting the execution
// flow; the record is the source of truth, events are best effort here.
func (s *Service) publish(ctx context.Context, evt contracts.Event) {
	if err := s.bus.Publish(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "publish event failed", "kind", evt.Kind(), "error", err)
	}
}

func (s *Service) trackRunning(taskID uuid.UUID, cancel context.CancelFunc) {
	s.mu.Lock()
	s.running[taskID] = cancel
	s.mu.Unlock()
}

func (s *Service) untrackRunning(taskID uuid.UUID) {
	s.mu.Lock()
	delete(s.running, taskID)
	s.mu.Unlock()
}
