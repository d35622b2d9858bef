package execution

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// ErrRecordNotFound is returned when no execution record matches the lookup.
var ErrRecordNotFound = errors.New("execution record not found")

// Repository persists execution records. At most one record exists per
// TaskID; Create enforces that uniqueness.
type Repository interface {
	Create(ctx context.Context, tx *sql.Tx, r *Record) error
	Update(ctx context.Context, tx *sql.Tx, r *Record) error
	GetByTaskID(ctx context.Context, taskID uuid.UUID) (*Record, error)
}
