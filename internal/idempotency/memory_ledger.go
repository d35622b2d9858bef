package idempotency

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type ledgerKey struct {
	eventID  uuid.UUID
	consumer string
}

// MemoryLedger is an in-memory Ledger for tests and single-process setups.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[ledgerKey]struct{}
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[ledgerKey]struct{})}
}

// IsProcessed implements Ledger.
func (l *MemoryLedger) IsProcessed(_ context.Context, eventID uuid.UUID, consumerName string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.entries[ledgerKey{eventID: eventID, consumer: consumerName}]
	return ok, nil
}

// MarkProcessed implements Ledger.
func (l *MemoryLedger) MarkProcessed(_ context.Context, eventID uuid.UUID, consumerName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[ledgerKey{eventID: eventID, consumer: consumerName}] = struct{}{}
	return nil
}
