// Package outbox implements the transactional outbox: an event destined for
// the broker is appended in the same database transaction as the state change
// that announces it, and a background processor publishes it afterwards.
package outbox

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kostyavrode/TaskFlow/internal/contracts"
)

// ErrMessageNotFound is returned when a message id does not exist.
var ErrMessageNotFound = errors.New("outbox message not found")

// Message is one pending (or historical) outbox row. Rows are never deleted:
// once ProcessedAt is set the row is terminal and kept for audit.
type Message struct {
	ID          uuid.UUID
	EventType   contracts.Kind
	Payload     []byte
	CreatedAt   time.Time
	ProcessedAt *time.Time
	RetryCount  int
	Error       string
}

// NewMessage serializes an event into a pending outbox message.
func NewMessage(evt contracts.Event) (*Message, error) {
	payload, err := contracts.Encode(evt)
	if err != nil {
		return nil, err
	}
	return &Message{
		ID:        uuid.New(),
		EventType: evt.Kind(),
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Store persists outbox messages. Implementations must be safe for
// concurrent use.
type Store interface {
	// Add appends the message. When tx is non-nil the insert joins the
	// caller's transaction; this is what ties "state changed" to "event will
	// eventually be sent".
	Add(ctx context.Context, tx *sql.Tx, m *Message) error
	// GetUnprocessed returns up to batchSize pending messages, oldest first.
	// Messages at or above the retry ceiling are excluded permanently.
	GetUnprocessed(ctx context.Context, batchSize int) ([]*Message, error)
	// MarkProcessed stamps ProcessedAt. Terminal.
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	// MarkFailed increments RetryCount and records the error, leaving the
	// row eligible until the ceiling.
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}
