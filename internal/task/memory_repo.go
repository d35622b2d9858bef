package task

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*Task
}

// NewMemoryRepo creates an empty in-memory repository.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tasks: make(map[uuid.UUID]*Task)}
}

// Create implements Repository. The tx argument is ignored.
func (r *MemoryRepo) Create(_ context.Context, _ *sql.Tx, t *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.tasks[t.ID] = &cp
	return nil
}

// Update implements Repository.
func (r *MemoryRepo) Update(_ context.Context, _ *sql.Tx, t *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		return ErrTaskNotFound
	}
	cp := *t
	r.tasks[t.ID] = &cp
	return nil
}

// GetByID implements Repository.
func (r *MemoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

// ListByUser implements Repository. Newest first.
func (r *MemoryRepo) ListByUser(_ context.Context, userID string) ([]*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Task
	for _, t := range r.tasks {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// CountByUser implements Repository.
func (r *MemoryRepo) CountByUser(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tasks {
		if t.UserID == userID {
			n++
		}
	}
	return n, nil
}
