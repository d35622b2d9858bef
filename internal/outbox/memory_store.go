package outbox

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests and single-process setups.
// It applies the same visibility rules as the SQL store.
type MemoryStore struct {
	mu         sync.Mutex
	messages   map[uuid.UUID]*Message
	maxRetries int
}

// NewMemoryStore creates an empty in-memory outbox.
func NewMemoryStore(maxRetries int) *MemoryStore {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &MemoryStore{
		messages:   make(map[uuid.UUID]*Message),
		maxRetries: maxRetries,
	}
}

// Add implements Store. The tx argument is ignored: the memory store is not
// transactional.
func (s *MemoryStore) Add(_ context.Context, _ *sql.Tx, m *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.messages[m.ID] = &cp
	return nil
}

// GetUnprocessed implements Store.
func (s *MemoryStore) GetUnprocessed(_ context.Context, batchSize int) ([]*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*Message
	for _, m := range s.messages {
		if m.ProcessedAt == nil && m.RetryCount < s.maxRetries {
			cp := *m
			pending = append(pending, &cp)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > batchSize {
		pending = pending[:batchSize]
	}
	return pending, nil
}

// MarkProcessed implements Store.
func (s *MemoryStore) MarkProcessed(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	now := time.Now().UTC()
	m.ProcessedAt = &now
	return nil
}

// MarkFailed implements Store.
func (s *MemoryStore) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	m.RetryCount++
	m.Error = reason
	return nil
}

// Get returns a copy of the message by id, for inspection in tests.
func (s *MemoryStore) Get(id uuid.UUID) (*Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, false
	}
	cp := *m
	return &cp, true
}

// All returns copies of every stored message, for inspection in tests.
func (s *MemoryStore) All() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Message, 0, len(s.messages))
	for _, m := range s.messages {
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
