package idempotency

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/kostyavrode/TaskFlow/internal/errors"
)

// SQLLedger stores processed-event rows in the service's own schema. Each
// service keeps an independent ledger; they are never shared.
type SQLLedger struct {
	db *sql.DB
}

// NewSQLLedger creates a ledger over the processed_events table.
func NewSQLLedger(db *sql.DB) *SQLLedger {
	return &SQLLedger{db: db}
}

// IsProcessed implements Ledger.
func (l *SQLLedger) IsProcessed(ctx context.Context, eventID uuid.UUID, consumerName string) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM processed_events WHERE event_id = $1 AND consumer_name = $2
		)`
	var exists bool
	if err := l.db.QueryRowContext(ctx, query, eventID, consumerName).Scan(&exists); err != nil {
		return false, fmt.Errorf("check processed event: %w", apperrors.MapDBError(err))
	}
	return exists, nil
}

// MarkProcessed implements Ledger. Concurrent handlers for the same pair can
// both reach the insert; the primary key makes the second write a no-op
// instead of an error.
func (l *SQLLedger) MarkProcessed(ctx context.Context, eventID uuid.UUID, consumerName string) error {
	const query = `
		INSERT INTO processed_events (event_id, consumer_name, processed_at)
		VALUES ($1, $2, now())`
	if _, err := l.db.ExecContext(ctx, query, eventID, consumerName); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil
		}
		return fmt.Errorf("mark event processed: %w", apperrors.MapDBError(err))
	}
	return nil
}
