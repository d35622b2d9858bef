package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kostyavrode/TaskFlow/internal/contracts"
	"github.com/kostyavrode/TaskFlow/internal/testutil"
)

func addOutboxRow(t *testing.T, store *SQLStore, createdAt time.Time) *Message {
	t.Helper()
	m, err := NewMessage(contracts.TaskCreated{
		Meta:     contracts.NewMeta("corr-1"),
		TaskID:   uuid.New(),
		UserID:   "user-1",
		TaskType: "Report",
		Priority: "High",
	})
	require.NoError(t, err)
	m.CreatedAt = createdAt
	require.NoError(t, store.Add(context.Background(), nil, m))
	return m
}

func TestSQLStoreGetUnprocessedVisibility(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := NewSQLStore(db, 2)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Minute)
	oldest := addOutboxRow(t, store, base)
	middle := addOutboxRow(t, store, base.Add(time.Second))
	newest := addOutboxRow(t, store, base.Add(2*time.Second))

	msgs, err := store.GetUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	// Oldest first.
	assert.Equal(t, oldest.ID, msgs[0].ID)
	assert.Equal(t, middle.ID, msgs[1].ID)
	assert.Equal(t, newest.ID, msgs[2].ID)
	assert.Equal(t, contracts.KindTaskCreated, msgs[0].EventType)
	assert.Equal(t, oldest.Payload, msgs[0].Payload)

	// Processed rows leave the pending set.
	require.NoError(t, store.MarkProcessed(ctx, oldest.ID))
	msgs, err = store.GetUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, middle.ID, msgs[0].ID)

	// One failure keeps the row eligible and records the reason.
	require.NoError(t, store.MarkFailed(ctx, middle.ID, "broker unavailable"))
	msgs, err = store.GetUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, 1, msgs[0].RetryCount)
	assert.Equal(t, "broker unavailable", msgs[0].Error)

	// At the ceiling the row parks until an operator steps in.
	require.NoError(t, store.MarkFailed(ctx, middle.ID, "broker unavailable"))
	msgs, err = store.GetUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, newest.ID, msgs[0].ID)
}

func TestSQLStoreBatchLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := NewSQLStore(db, 5)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Minute)
	oldest := addOutboxRow(t, store, base)
	addOutboxRow(t, store, base.Add(time.Second))
	addOutboxRow(t, store, base.Add(2*time.Second))

	msgs, err := store.GetUnprocessed(ctx, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, oldest.ID, msgs[0].ID)
}

func TestSQLStoreAddJoinsTransaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := NewSQLStore(db, 5)
	ctx := context.Background()

	m, err := NewMessage(contracts.TaskCreated{
		Meta: contracts.NewMeta("corr-1"), TaskID: uuid.New(), UserID: "user-1",
		TaskType: "Report", Priority: "High",
	})
	require.NoError(t, err)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, tx, m))
	require.NoError(t, tx.Rollback())

	msgs, err := store.GetUnprocessed(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	tx, err = db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, tx, m))
	require.NoError(t, tx.Commit())

	msgs, err = store.GetUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, m.ID, msgs[0].ID)
}

func TestSQLStoreMarkMissingMessage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := NewSQLStore(db, 5)
	ctx := context.Background()

	require.ErrorIs(t, store.MarkProcessed(ctx, uuid.New()), ErrMessageNotFound)
	require.ErrorIs(t, store.MarkFailed(ctx, uuid.New(), "whatever"), ErrMessageNotFound)
}
