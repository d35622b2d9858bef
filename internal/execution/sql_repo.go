package execution

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	apperrors "github.com/kostyavrode/TaskFlow/internal/errors"
)

const recordColumns = `id, task_id, user_id, task_type, priority, payload, status,
	progress_percent, status_message, result_location, error_message, retry_count,
	created_at, started_at, completed_at, correlation_id`

// SQLRepo stores execution records in Postgres.
type SQLRepo struct {
	db *sql.DB
}

func NewSQLRepo(db *sql.DB) *SQLRepo {
	return &SQLRepo{db: db}
}

func (r *SQLRepo) Create(ctx context.Context, tx *sql.Tx, rec *Record) error {
	const q = `
		INSERT INTO execution_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.exec(ctx, tx, q,
		rec.ID, rec.TaskID, rec.UserID, rec.TaskType, rec.Priority, rec.Payload,
		string(rec.Status), rec.ProgressPercent, nullIfEmpty(rec.StatusMessage),
		nullIfEmpty(rec.ResultLocation), nullIfEmpty(rec.ErrorMessage), rec.RetryCount,
		rec.CreatedAt, rec.StartedAt, rec.CompletedAt, rec.CorrelationID)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

func (r *SQLRepo) Update(ctx context.Context, tx *sql.Tx, rec *Record) error {
	const q = `
		UPDATE execution_records
		SET status = $2, progress_percent = $3, status_message = $4,
			result_location = $5, error_message = $6, retry_count = $7,
			started_at = $8, completed_at = $9
		WHERE id = $1`
	res, err := r.exec(ctx, tx, q,
		rec.ID, string(rec.Status), rec.ProgressPercent, nullIfEmpty(rec.StatusMessage),
		nullIfEmpty(rec.ResultLocation), nullIfEmpty(rec.ErrorMessage), rec.RetryCount,
		rec.StartedAt, rec.CompletedAt)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return checkAffected(res)
}

func (r *SQLRepo) GetByTaskID(ctx context.Context, taskID uuid.UUID) (*Record, error) {
	const q = `SELECT ` + recordColumns + ` FROM execution_records WHERE task_id = $1`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, taskID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, apperrors.MapDBError(err)
	}
	return rec, nil
}

func (r *SQLRepo) exec(ctx context.Context, tx *sql.Tx, q string, args ...any) (sql.Result, error) {
	if tx != nil {
		return tx.ExecContext(ctx, q, args...)
	}
	return r.db.ExecContext(ctx, q, args...)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.MapDBError(err)
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec                                    Record
		status                                 string
		statusMessage, resultLoc, errorMessage sql.NullString
		startedAt, completedAt                 sql.NullTime
	)
	err := row.Scan(&rec.ID, &rec.TaskID, &rec.UserID, &rec.TaskType, &rec.Priority,
		&rec.Payload, &status, &rec.ProgressPercent, &statusMessage, &resultLoc,
		&errorMessage, &rec.RetryCount, &rec.CreatedAt, &startedAt, &completedAt,
		&rec.CorrelationID)
	if err != nil {
		return nil, err
	}
	rec.Status = Status(status)
	rec.StatusMessage = statusMessage.String
	rec.ResultLocation = resultLoc.String
	rec.ErrorMessage = errorMessage.String
	if startedAt.Valid {
		rec.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		rec.CompletedAt = &completedAt.Time
	}
	return &rec, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
