package task

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// ErrTaskNotFound is returned when a task id does not exist.
var ErrTaskNotFound = errors.New("task not found")

// Repository persists tasks. Write methods accept an optional transaction so
// the service can pair a task change with its outbox row; tx may be nil for
// non-transactional stores.
type Repository interface {
	Create(ctx context.Context, tx *sql.Tx, t *Task) error
	Update(ctx context.Context, tx *sql.Tx, t *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	ListByUser(ctx context.Context, userID string) ([]*Task, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}
