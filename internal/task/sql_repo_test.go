package task

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kostyavrode/TaskFlow/internal/testutil"
)

func TestSQLRepoCreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewSQLRepo(db)
	ctx := context.Background()

	tk := New("user-1", TypeReport, PriorityHigh, `{"pages":3}`, nil)
	require.NoError(t, repo.Create(ctx, nil, tk))

	got, err := repo.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, tk.ID, got.ID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, TypeReport, got.Type)
	assert.Equal(t, PriorityHigh, got.Priority)
	assert.Equal(t, `{"pages":3}`, got.Payload)
	assert.Equal(t, StatusCreated, got.Status)
	assert.Empty(t, got.ResultLocation)
	assert.Nil(t, got.ScheduledAt)
	assert.WithinDuration(t, tk.CreatedAt, got.CreatedAt, time.Second)
}

func TestSQLRepoCreatePersistsSchedule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewSQLRepo(db)
	ctx := context.Background()

	at := time.Now().UTC().Add(2 * time.Hour)
	tk := New("user-1", TypeBackup, PriorityLow, "", &at)
	require.NoError(t, repo.Create(ctx, nil, tk))

	got, err := repo.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ScheduledAt)
	assert.WithinDuration(t, at, *got.ScheduledAt, time.Second)
}

func TestSQLRepoGetByIDNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewSQLRepo(db)

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSQLRepoUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewSQLRepo(db)
	ctx := context.Background()

	tk := New("user-1", TypeEmail, PriorityMedium, "", nil)
	require.NoError(t, repo.Create(ctx, nil, tk))

	require.NoError(t, tk.MarkPending())
	require.NoError(t, tk.MarkRunning())
	require.NoError(t, tk.MarkCompleted("files/user-1/report.txt"))
	require.NoError(t, repo.Update(ctx, nil, tk))

	got, err := repo.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "files/user-1/report.txt", got.ResultLocation)
}

func TestSQLRepoUpdateMissingTask(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewSQLRepo(db)

	tk := New("user-1", TypeReport, PriorityMedium, "", nil)
	err := repo.Update(context.Background(), nil, tk)
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSQLRepoListAndCountByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewSQLRepo(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Minute)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		tk := New("user-a", TypeReport, PriorityMedium, "", nil)
		tk.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Create(ctx, nil, tk))
		ids = append(ids, tk.ID)
	}
	other := New("user-b", TypeEmail, PriorityLow, "", nil)
	require.NoError(t, repo.Create(ctx, nil, other))

	list, err := repo.ListByUser(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, list, 3)
	// Newest first.
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)
	assert.Equal(t, ids[0], list[2].ID)

	n, err := repo.CountByUser(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.CountByUser(ctx, "user-c")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
