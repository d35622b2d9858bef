package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/kostyavrode/TaskFlow/internal/errors"
)

// SQLRepo is the Postgres-backed task repository.
type SQLRepo struct {
	db *sql.DB
}

// NewSQLRepo creates a repository over the tasks table.
func NewSQLRepo(db *sql.DB) *SQLRepo {
	return &SQLRepo{db: db}
}

const taskColumns = `
	id,
	user_id,
	type,
	priority,
	payload,
	status,
	scheduled_at,
	result_location,
	created_at,
	updated_at
`

// Create implements Repository.
func (r *SQLRepo) Create(ctx context.Context, tx *sql.Tx, t *Task) error {
	const query = `
		INSERT INTO tasks (id, user_id, type, priority, payload, status, scheduled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	args := []any{
		t.ID, t.UserID, string(t.Type), string(t.Priority), t.Payload,
		string(t.Status), t.ScheduledAt, t.CreatedAt, t.UpdatedAt,
	}
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = r.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return fmt.Errorf("create task: %w", apperrors.MapDBError(err))
	}
	return nil
}

// Update implements Repository.
func (r *SQLRepo) Update(ctx context.Context, tx *sql.Tx, t *Task) error {
	const query = `
		UPDATE tasks
		SET status = $2, result_location = $3, priority = $4, updated_at = $5
		WHERE id = $1`

	args := []any{t.ID, string(t.Status), nullIfEmpty(t.ResultLocation), string(t.Priority), t.UpdatedAt}
	var (
		res sql.Result
		err error
	)
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, args...)
	} else {
		res, err = r.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return fmt.Errorf("update task: %w", apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// GetByID implements Repository.
func (r *SQLRepo) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", apperrors.MapDBError(err))
	}
	return t, nil
}

// ListByUser implements Repository. Newest first.
func (r *SQLRepo) ListByUser(ctx context.Context, userID string) ([]*Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", apperrors.MapDBError(err))
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// CountByUser implements Repository.
func (r *SQLRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	const query = `SELECT count(*) FROM tasks WHERE user_id = $1`
	var n int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", apperrors.MapDBError(err))
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var (
		t              Task
		typ, prio, st  string
		payload        sql.NullString
		scheduledAt    sql.NullTime
		resultLocation sql.NullString
	)
	err := row.Scan(&t.ID, &t.UserID, &typ, &prio, &payload, &st,
		&scheduledAt, &resultLocation, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Type = Type(typ)
	t.Priority = Priority(prio)
	t.Status = Status(st)
	t.Payload = payload.String
	t.ResultLocation = resultLocation.String
	if scheduledAt.Valid {
		at := scheduledAt.Time
		t.ScheduledAt = &at
	}
	return &t, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
