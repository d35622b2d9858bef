package execution

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueuedRecord() *Record {
	return NewRecord(uuid.New(), "user-1", "Report", "Medium", "", "corr-1")
}

func TestRecordLifecycle(t *testing.T) {
	rec := newQueuedRecord()
	assert.Equal(t, StatusQueued, rec.Status)

	require.NoError(t, rec.Start())
	assert.Equal(t, StatusRunning, rec.Status)
	require.NotNil(t, rec.StartedAt)

	require.NoError(t, rec.UpdateProgress(42, "halfway-ish"))
	assert.Equal(t, 42, rec.ProgressPercent)
	assert.Equal(t, "halfway-ish", rec.StatusMessage)

	require.NoError(t, rec.Complete("files/out"))
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, 100, rec.ProgressPercent)
	assert.Equal(t, "files/out", rec.ResultLocation)
	require.NotNil(t, rec.CompletedAt)
}

func TestRecordProgressClamping(t *testing.T) {
	rec := newQueuedRecord()
	require.NoError(t, rec.Start())

	require.NoError(t, rec.UpdateProgress(-5, "below"))
	assert.Equal(t, 0, rec.ProgressPercent)

	require.NoError(t, rec.UpdateProgress(150, "above"))
	assert.Equal(t, 100, rec.ProgressPercent)
}

func TestRecordProgressRequiresRunning(t *testing.T) {
	rec := newQueuedRecord()
	assert.Error(t, rec.UpdateProgress(10, "not started"))

	require.NoError(t, rec.Start())
	require.NoError(t, rec.Complete("files/out"))
	assert.Error(t, rec.UpdateProgress(10, "already done"))
}

func TestRecordRetry(t *testing.T) {
	rec := newQueuedRecord()
	require.NoError(t, rec.Start())
	rec.Fail("boom")
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, "boom", rec.ErrorMessage)

	assert.True(t, rec.CanRetry(3))
	require.NoError(t, rec.ResetForRetry())
	rec.IncrementRetry()
	assert.Equal(t, StatusQueued, rec.Status)
	assert.Equal(t, 1, rec.RetryCount)
	assert.Empty(t, rec.ErrorMessage)
	assert.Nil(t, rec.StartedAt)
	assert.Zero(t, rec.ProgressPercent)
}

func TestRecordRetryCeiling(t *testing.T) {
	rec := newQueuedRecord()
	rec.Fail("boom")
	rec.RetryCount = 3
	assert.False(t, rec.CanRetry(3))

	// Non-failed records never retry regardless of count.
	done := newQueuedRecord()
	require.NoError(t, done.Start())
	require.NoError(t, done.Complete("files/out"))
	assert.False(t, done.CanRetry(3))
}

func TestRecordCancel(t *testing.T) {
	rec := newQueuedRecord()
	require.NoError(t, rec.Cancel())
	assert.Equal(t, StatusCancelled, rec.Status)

	finished := newQueuedRecord()
	require.NoError(t, finished.Start())
	require.NoError(t, finished.Complete("files/out"))
	assert.Error(t, finished.Cancel())
	assert.Equal(t, StatusCompleted, finished.Status)
}

func TestRecordFailAppliesAnywhere(t *testing.T) {
	rec := newQueuedRecord()
	rec.Fail("infrastructure down")
	assert.Equal(t, StatusFailed, rec.Status)
	require.NotNil(t, rec.CompletedAt)
}
