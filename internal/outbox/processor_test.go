package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kostyavrode/TaskFlow/internal/contracts"
	"github.com/kostyavrode/TaskFlow/internal/testutil"
)

// fakePublisher records published events and can be told to fail for
// specific task ids.
type fakePublisher struct {
	mu      sync.Mutex
	events  []contracts.Event
	failFor map[uuid.UUID]error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{failFor: make(map[uuid.UUID]error)}
}

func (p *fakePublisher) Publish(_ context.Context, evt contracts.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := evt.(*contracts.TaskCreated); ok {
		if err := p.failFor[e.TaskID]; err != nil {
			return err
		}
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *fakePublisher) published() []contracts.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]contracts.Event(nil), p.events...)
}

func newTestProcessor(t *testing.T, store Store, pub Publisher) *Processor {
	t.Helper()
	return NewProcessor(ProcessorOptions{
		Store:     store,
		Publisher: pub,
		Logger:    testutil.Logger(),
	})
}

func addCreated(t *testing.T, store Store, taskID uuid.UUID) *Message {
	t.Helper()
	m, err := NewMessage(contracts.TaskCreated{
		Meta:     contracts.NewMeta("corr-1"),
		TaskID:   taskID,
		UserID:   "user-1",
		TaskType: "Report",
		Priority: "Medium",
	})
	require.NoError(t, err)
	require.NoError(t, store.Add(context.Background(), nil, m))
	return m
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	store := NewMemoryStore(5)
	pub := newFakePublisher()
	proc := newTestProcessor(t, store, pub)

	first := addCreated(t, store, uuid.New())
	second := addCreated(t, store, uuid.New())

	require.NoError(t, proc.ProcessBatch(context.Background()))

	assert.Len(t, pub.published(), 2)
	for _, id := range []uuid.UUID{first.ID, second.ID} {
		m, ok := store.Get(id)
		require.True(t, ok)
		assert.NotNil(t, m.ProcessedAt)
		assert.Equal(t, 0, m.RetryCount)
	}

	// Processed rows do not surface again.
	pending, err := store.GetUnprocessed(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProcessBatchIsolatesPublishFailure(t *testing.T) {
	store := NewMemoryStore(5)
	pub := newFakePublisher()
	proc := newTestProcessor(t, store, pub)

	badTask := uuid.New()
	pub.failFor[badTask] = errors.New("broker unavailable")

	bad := addCreated(t, store, badTask)
	good := addCreated(t, store, uuid.New())

	require.NoError(t, proc.ProcessBatch(context.Background()))

	// The healthy message went out despite its neighbor failing.
	assert.Len(t, pub.published(), 1)
	m, ok := store.Get(good.ID)
	require.True(t, ok)
	assert.NotNil(t, m.ProcessedAt)

	m, ok = store.Get(bad.ID)
	require.True(t, ok)
	assert.Nil(t, m.ProcessedAt)
	assert.Equal(t, 1, m.RetryCount)
	assert.Contains(t, m.Error, "broker unavailable")

	// Next pass retries the failed row.
	delete(pub.failFor, badTask)
	require.NoError(t, proc.ProcessBatch(context.Background()))
	m, ok = store.Get(bad.ID)
	require.True(t, ok)
	assert.NotNil(t, m.ProcessedAt)
}

func TestProcessBatchFailsUndecodableMessage(t *testing.T) {
	store := NewMemoryStore(5)
	pub := newFakePublisher()
	proc := newTestProcessor(t, store, pub)

	m := &Message{
		ID:        uuid.New(),
		EventType: contracts.Kind("task.unknown"),
		Payload:   []byte(`{}`),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Add(context.Background(), nil, m))

	require.NoError(t, proc.ProcessBatch(context.Background()))

	assert.Empty(t, pub.published())
	got, ok := store.Get(m.ID)
	require.True(t, ok)
	assert.Nil(t, got.ProcessedAt)
	assert.Equal(t, 1, got.RetryCount)
	assert.NotEmpty(t, got.Error)
}

func TestMemoryStoreVisibility(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	msgs := make([]*Message, 0, 3)
	for i := range 3 {
		m := addCreated(t, store, uuid.New())
		// Spread CreatedAt so ordering is deterministic.
		m.CreatedAt = m.CreatedAt.Add(time.Duration(i) * time.Millisecond)
		require.NoError(t, store.Add(ctx, nil, m))
		msgs = append(msgs, m)
	}

	// Oldest first, capped at the batch size.
	pending, err := store.GetUnprocessed(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, msgs[0].ID, pending[0].ID)
	assert.Equal(t, msgs[1].ID, pending[1].ID)

	// A row at the retry ceiling is parked.
	require.NoError(t, store.MarkFailed(ctx, msgs[0].ID, "boom"))
	require.NoError(t, store.MarkFailed(ctx, msgs[0].ID, "boom"))
	pending, err = store.GetUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, msgs[1].ID, pending[0].ID)
	assert.Equal(t, msgs[2].ID, pending[1].ID)

	assert.ErrorIs(t, store.MarkProcessed(ctx, uuid.New()), ErrMessageNotFound)
	assert.ErrorIs(t, store.MarkFailed(ctx, uuid.New(), "x"), ErrMessageNotFound)
}
