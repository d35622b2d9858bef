package idempotency

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kostyavrode/TaskFlow/internal/contracts"
	"github.com/kostyavrode/TaskFlow/internal/testutil"
)

func TestIdempotentRunsHandlerOnce(t *testing.T) {
	ledger := NewMemoryLedger()
	calls := 0
	handler := Idempotent("test-consumer", ledger, testutil.Logger(),
		func(ctx context.Context, evt contracts.Event) error {
			calls++
			return nil
		})

	evt := &contracts.TaskCreated{Meta: contracts.NewMeta("corr-1")}
	ctx := context.Background()

	require.NoError(t, handler(ctx, evt))
	assert.Equal(t, 1, calls)

	// The redelivered event short-circuits.
	require.NoError(t, handler(ctx, evt))
	assert.Equal(t, 1, calls)

	// A different event id runs the handler again.
	other := &contracts.TaskCreated{Meta: contracts.NewMeta("corr-2")}
	require.NoError(t, handler(ctx, other))
	assert.Equal(t, 2, calls)
}

func TestIdempotentMarksOnlyOnSuccess(t *testing.T) {
	ledger := NewMemoryLedger()
	calls := 0
	handler := Idempotent("test-consumer", ledger, testutil.Logger(),
		func(ctx context.Context, evt contracts.Event) error {
			calls++
			if calls == 1 {
				return errors.New("transient failure")
			}
			return nil
		})

	evt := &contracts.TaskCreated{Meta: contracts.NewMeta("corr-1")}
	ctx := context.Background()

	require.Error(t, handler(ctx, evt))

	processed, err := ledger.IsProcessed(ctx, evt.EventID, "test-consumer")
	require.NoError(t, err)
	assert.False(t, processed)

	// The retry reaches the handler and marks the pair on success.
	require.NoError(t, handler(ctx, evt))
	assert.Equal(t, 2, calls)

	processed, err = ledger.IsProcessed(ctx, evt.EventID, "test-consumer")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestIdempotentScopesByConsumer(t *testing.T) {
	ledger := NewMemoryLedger()
	evt := &contracts.TaskCreated{Meta: contracts.NewMeta("corr-1")}
	ctx := context.Background()

	first := 0
	second := 0
	a := Idempotent("consumer-a", ledger, testutil.Logger(),
		func(ctx context.Context, evt contracts.Event) error { first++; return nil })
	b := Idempotent("consumer-b", ledger, testutil.Logger(),
		func(ctx context.Context, evt contracts.Event) error { second++; return nil })

	require.NoError(t, a(ctx, evt))
	require.NoError(t, b(ctx, evt))
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}
