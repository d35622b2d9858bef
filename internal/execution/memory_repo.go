package execution

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/kostyavrode/TaskFlow/internal/errors"
)

// MemoryRepo keeps execution records in memory, keyed by TaskID.
type MemoryRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Record
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{records: make(map[uuid.UUID]*Record)}
}

func (r *MemoryRepo) Create(_ context.Context, _ *sql.Tx, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.TaskID]; ok {
		return apperrors.Conflict("execution record already exists for task")
	}
	cp := *rec
	r.records[rec.TaskID] = &cp
	return nil
}

func (r *MemoryRepo) Update(_ context.Context, _ *sql.Tx, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[rec.TaskID]
	if !ok || stored.ID != rec.ID {
		return ErrRecordNotFound
	}
	cp := *rec
	r.records[rec.TaskID] = &cp
	return nil
}

func (r *MemoryRepo) GetByTaskID(_ context.Context, taskID uuid.UUID) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[taskID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}
