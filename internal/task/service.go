package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kostyavrode/TaskFlow/internal/contracts"
	apperrors "github.com/kostyavrode/TaskFlow/internal/errors"
	"github.com/kostyavrode/TaskFlow/internal/outbox"
)

const (
	defaultMaxUserTasks    = 100
	defaultMaxPayloadBytes = 10000
)

// TxBeginner opens short-lived transactions pairing a task write with its
// outbox row. *sql.DB satisfies it.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// ServiceOptions groups dependencies for Service.
type ServiceOptions struct {
	Repo   Repository   // Required: task repository
	Outbox outbox.Store // Required: same-schema outbox store
	// DB is optional; when nil (memory stores) writes skip the transaction.
	DB     TxBeginner
	Logger *slog.Logger
	// MaxUserTasks caps tasks per user. Defaults to 100.
	MaxUserTasks int
}

// Service is the intake command surface: it validates requests, drives the
// Task state machine, and appends the announcing event to the outbox within
// the same transaction as the task write.
type Service struct {
	repo         Repository
	outbox       outbox.Store
	db           TxBeginner
	logger       *slog.Logger
	maxUserTasks int
}

// NewService constructs a Service.
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Repo == nil {
		return nil, errors.New("task repository is required")
	}
	if opts.Outbox == nil {
		return nil, errors.New("outbox store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxTasks := opts.MaxUserTasks
	if maxTasks <= 0 {
		maxTasks = defaultMaxUserTasks
	}
	return &Service{
		repo:         opts.Repo,
		outbox:       opts.Outbox,
		db:           opts.DB,
		logger:       logger.With("component", "task_service"),
		maxUserTasks: maxTasks,
	}, nil
}

// CreateRequest carries the user-facing create command. TaskType and
// Priority are parsed permissively (unknown values fall back to Report and
// Medium).
type CreateRequest struct {
	UserID      string     `json:"userId"`
	TaskType    string     `json:"taskType"`
	Priority    string     `json:"priority"`
	Payload     string     `json:"payload,omitempty"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
}

func (r *CreateRequest) validate() error {
	if r.UserID == "" {
		return apperrors.ValidationField("userId", "UserId is required")
	}
	if len(r.Payload) > defaultMaxPayloadBytes {
		return apperrors.ValidationField("payload", "Payload is too large")
	}
	if r.ScheduledAt != nil && !r.ScheduledAt.After(time.Now()) {
		return apperrors.ValidationField("scheduledAt", "ScheduledAt must be in the future")
	}
	return nil
}

// Create accepts a task, marks it Pending and appends the TaskCreated event
// to the outbox in the same transaction as the insert.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Task, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	count, err := s.repo.CountByUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if count >= s.maxUserTasks {
		return nil, apperrors.QuotaExceededf("user has reached maximum task limit (%d)", s.maxUserTasks)
	}

	t := New(req.UserID, ParseType(req.TaskType), ParsePriority(req.Priority), req.Payload, req.ScheduledAt)
	if err := t.MarkPending(); err != nil {
		return nil, err
	}

	evt := &contracts.TaskCreated{
		Meta:        contracts.NewMeta(uuid.NewString()),
		TaskID:      t.ID,
		UserID:      t.UserID,
		TaskType:    string(t.Type),
		Priority:    string(t.Priority),
		Payload:     t.Payload,
		ScheduledAt: t.ScheduledAt,
	}
	msg, err := outbox.NewMessage(evt)
	if err != nil {
		return nil, err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.repo.Create(ctx, tx, t); err != nil {
			return err
		}
		return s.outbox.Add(ctx, tx, msg)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "task created",
		"task_id", t.ID, "user_id", t.UserID, "type", t.Type, "priority", t.Priority,
		"correlation_id", evt.CorrelationID)
	return t, nil
}

// Cancel transitions the caller's task to Cancelled and records the
// TaskCancelled event in the same transaction.
func (s *Service) Cancel(ctx context.Context, taskID uuid.UUID, userID string) error {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return apperrors.NotFound("Task not found")
		}
		return err
	}
	if t.UserID != userID {
		return apperrors.Unauthorized("task belongs to a different user")
	}
	if err := t.Cancel(); err != nil {
		return err
	}

	evt := &contracts.TaskCancelled{
		Meta:        contracts.NewMeta(uuid.NewString()),
		TaskID:      t.ID,
		UserID:      t.UserID,
		CancelledAt: t.UpdatedAt,
	}
	msg, err := outbox.NewMessage(evt)
	if err != nil {
		return err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.repo.Update(ctx, tx, t); err != nil {
			return err
		}
		return s.outbox.Add(ctx, tx, msg)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "task cancelled", "task_id", t.ID, "user_id", t.UserID)
	return nil
}

// Get returns the caller's task. Another user's task reads as not found.
func (s *Service) Get(ctx context.Context, taskID uuid.UUID, userID string) (*Task, error) {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, apperrors.NotFound("Task not found")
		}
		return nil, err
	}
	if t.UserID != userID {
		return nil, apperrors.NotFound("Task not found")
	}
	return t, nil
}

// ListByUser returns the user's tasks, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Task, error) {
	if userID == "" {
		return nil, apperrors.ValidationField("userId", "UserId is required")
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if s.db == nil {
		return fn(nil)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
