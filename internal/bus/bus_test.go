package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kostyavrode/TaskFlow/internal/contracts"
	"github.com/kostyavrode/TaskFlow/internal/testutil"
)

func TestQueueName(t *testing.T) {
	assert.Equal(t, "executor-task-created", QueueName(ServiceExecutor, contracts.KindTaskCreated))
	assert.Equal(t, "notifier-task-progress", QueueName(ServiceNotifier, contracts.KindTaskProgress))
	assert.Equal(t, "intake-task-completed", QueueName("Intake", contracts.KindTaskCompleted))
}

func TestRetryBackoff(t *testing.T) {
	base := 2 * time.Second
	assert.Equal(t, 2*time.Second, RetryBackoff(base, 0))
	assert.Equal(t, 4*time.Second, RetryBackoff(base, 1))
	assert.Equal(t, 8*time.Second, RetryBackoff(base, 2))
	// The delay flattens past the second retry.
	assert.Equal(t, 8*time.Second, RetryBackoff(base, 3))
	assert.Equal(t, 8*time.Second, RetryBackoff(base, 10))
	// Zero base falls back to one second.
	assert.Equal(t, time.Second, RetryBackoff(0, 0))
}

func TestSubscribersOf(t *testing.T) {
	assert.ElementsMatch(t, []string{ServiceExecutor, ServiceNotifier},
		SubscribersOf(contracts.KindTaskCreated))
	assert.ElementsMatch(t, []string{ServiceIntake, ServiceNotifier},
		SubscribersOf(contracts.KindTaskCompleted))
	assert.Equal(t, []string{ServiceNotifier}, SubscribersOf(contracts.KindTaskProgress))
	assert.Empty(t, SubscribersOf(contracts.Kind("task.unknown")))
}

func TestMemoryBusFansOut(t *testing.T) {
	mb := NewMemoryBus(0, testutil.Logger())

	var executorGot, notifierGot int
	mb.Gateway(ServiceExecutor).Subscribe(contracts.KindTaskCreated,
		func(ctx context.Context, evt contracts.Event) error {
			executorGot++
			_, ok := evt.(*contracts.TaskCreated)
			assert.True(t, ok)
			return nil
		})
	mb.Gateway(ServiceNotifier).Subscribe(contracts.KindTaskCreated,
		func(ctx context.Context, evt contracts.Event) error {
			notifierGot++
			return nil
		})

	evt := contracts.TaskCreated{
		Meta:     contracts.NewMeta("corr-1"),
		TaskID:   uuid.New(),
		UserID:   "user-1",
		TaskType: "Report",
		Priority: "Medium",
	}
	require.NoError(t, mb.Gateway(ServiceIntake).Publish(context.Background(), evt))

	assert.Equal(t, 1, executorGot)
	assert.Equal(t, 1, notifierGot)
}

func TestMemoryBusRedelivers(t *testing.T) {
	mb := NewMemoryBus(3, testutil.Logger())

	attempts := 0
	mb.Gateway(ServiceExecutor).Subscribe(contracts.KindTaskCreated,
		func(ctx context.Context, evt contracts.Event) error {
			attempts++
			if attempts < 3 {
				return errors.New("transient failure")
			}
			return nil
		})

	evt := contracts.TaskCreated{Meta: contracts.NewMeta("corr-1"), TaskID: uuid.New()}
	require.NoError(t, mb.Gateway(ServiceIntake).Publish(context.Background(), evt))
	assert.Equal(t, 3, attempts)
}

func TestMemoryBusStopsAtRetryCeiling(t *testing.T) {
	mb := NewMemoryBus(2, testutil.Logger())

	attempts := 0
	mb.Gateway(ServiceExecutor).Subscribe(contracts.KindTaskCreated,
		func(ctx context.Context, evt contracts.Event) error {
			attempts++
			return errors.New("always fails")
		})

	evt := contracts.TaskCreated{Meta: contracts.NewMeta("corr-1"), TaskID: uuid.New()}
	// Publish succeeds even when every delivery fails; exhaustion is logged.
	require.NoError(t, mb.Gateway(ServiceIntake).Publish(context.Background(), evt))
	assert.Equal(t, 3, attempts)
}
