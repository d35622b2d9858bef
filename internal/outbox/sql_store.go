package outbox

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/kostyavrode/TaskFlow/internal/contracts"
	apperrors "github.com/kostyavrode/TaskFlow/internal/errors"
)

const defaultMaxRetries = 5

// SQLStore persists outbox messages in the service's own Postgres schema.
type SQLStore struct {
	db         *sql.DB
	maxRetries int
}

// NewSQLStore creates a store over the outbox_messages table. maxRetries is
// the publish retry ceiling; rows that reach it stay pending operator
// intervention and are never returned again.
func NewSQLStore(db *sql.DB, maxRetries int) *SQLStore {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &SQLStore{db: db, maxRetries: maxRetries}
}

const outboxColumns = `id, event_type, payload, created_at, processed_at, retry_count, error`

// Add implements Store.
func (s *SQLStore) Add(ctx context.Context, tx *sql.Tx, m *Message) error {
	const query = `
		INSERT INTO outbox_messages (id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, m.ID, string(m.EventType), m.Payload, m.CreatedAt)
	} else {
		_, err = s.db.ExecContext(ctx, query, m.ID, string(m.EventType), m.Payload, m.CreatedAt)
	}
	if err != nil {
		return fmt.Errorf("add outbox message: %w", apperrors.MapDBError(err))
	}
	return nil
}

// GetUnprocessed implements Store.
func (s *SQLStore) GetUnprocessed(ctx context.Context, batchSize int) ([]*Message, error) {
	const query = `
		SELECT ` + outboxColumns + `
		FROM outbox_messages
		WHERE processed_at IS NULL AND retry_count < $1
		ORDER BY created_at
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, s.maxRetries, batchSize)
	if err != nil {
		return nil, fmt.Errorf("get unprocessed outbox messages: %w", apperrors.MapDBError(err))
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox messages: %w", err)
	}
	return msgs, nil
}

// MarkProcessed implements Store.
func (s *SQLStore) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE outbox_messages SET processed_at = now() WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark outbox message processed: %w", apperrors.MapDBError(err))
	}
	return checkAffected(res)
}

// MarkFailed implements Store.
func (s *SQLStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	const query = `UPDATE outbox_messages SET retry_count = retry_count + 1, error = $2 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, id, reason)
	if err != nil {
		return fmt.Errorf("mark outbox message failed: %w", apperrors.MapDBError(err))
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func scanMessage(rows *sql.Rows) (*Message, error) {
	var (
		m           Message
		eventType   string
		processedAt sql.NullTime
		errMsg      sql.NullString
	)
	if err := rows.Scan(&m.ID, &eventType, &m.Payload, &m.CreatedAt, &processedAt, &m.RetryCount, &errMsg); err != nil {
		return nil, fmt.Errorf("scan outbox message: %w", err)
	}
	m.EventType = contracts.Kind(eventType)
	if processedAt.Valid {
		t := processedAt.Time
		m.ProcessedAt = &t
	}
	if errMsg.Valid {
		m.Error = errMsg.String
	}
	return &m, nil
}
