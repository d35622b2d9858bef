package contracts

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	scheduledAt := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	evt := TaskCreated{
		Meta:        NewMeta("corr-1"),
		TaskID:      uuid.New(),
		UserID:      "user-1",
		TaskType:    "Report",
		Priority:    "High",
		Payload:     `{"quarter":"Q3"}`,
		ScheduledAt: &scheduledAt,
	}

	payload, err := Encode(evt)
	require.NoError(t, err)

	decoded, err := Decode(KindTaskCreated, payload)
	require.NoError(t, err)

	got, ok := decoded.(*TaskCreated)
	require.True(t, ok)
	assert.Equal(t, evt.EventID, got.EventID)
	assert.Equal(t, evt.CorrelationID, got.CorrelationID)
	assert.Equal(t, evt.TaskID, got.TaskID)
	assert.Equal(t, evt.UserID, got.UserID)
	assert.Equal(t, evt.TaskType, got.TaskType)
	assert.Equal(t, evt.Priority, got.Priority)
	assert.Equal(t, evt.Payload, got.Payload)
	require.NotNil(t, got.ScheduledAt)
	assert.True(t, scheduledAt.Equal(*got.ScheduledAt))
	assert.Equal(t, KindTaskCreated, got.Kind())
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := Decode(Kind("task.unknown"), []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event kind")
}

func TestDecodeMalformedPayload(t *testing.T) {
	_, err := Decode(KindTaskFailed, []byte(`{"retryCount":"three"}`))
	require.Error(t, err)
}

func TestKnownKind(t *testing.T) {
	for _, k := range []Kind{
		KindTaskCreated, KindTaskStarted, KindTaskProgress,
		KindTaskCompleted, KindTaskFailed, KindTaskCancelled,
	} {
		assert.True(t, KnownKind(k), string(k))
	}
	assert.False(t, KnownKind(Kind("task.unknown")))
}

func TestNewMetaIdentity(t *testing.T) {
	m := NewMeta("corr-1")
	assert.NotEqual(t, uuid.Nil, m.EventID)
	assert.Equal(t, "corr-1", m.CorrelationID)
	assert.False(t, m.OccurredAt.IsZero())

	// Each event gets a fresh identity even on shared correlation.
	other := NewMeta("corr-1")
	assert.NotEqual(t, m.EventID, other.EventID)
}
