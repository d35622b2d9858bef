// Package idempotency narrows the broker's at-least-once delivery to
// effectively-once handling. A ledger records (event id, consumer name) pairs
// that completed; the consumer wrapper short-circuits redeliveries.
package idempotency

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kostyavrode/TaskFlow/internal/bus"
	"github.com/kostyavrode/TaskFlow/internal/contracts"
)

// Ledger records handled events per consumer. Rows are write-once: presence
// means the handler already ran to completion for that pair.
type Ledger interface {
	IsProcessed(ctx context.Context, eventID uuid.UUID, consumerName string) (bool, error)
	MarkProcessed(ctx context.Context, eventID uuid.UUID, consumerName string) error
}

// Idempotent wraps a handler with ledger-based deduplication. The ledger is
// marked only after the handler succeeds, so a handler error propagates to
// the transport's retry policy with the pair still unmarked. A crash between
// a successful handler and the ledger write causes one harmless re-run that
// the domain transition guards absorb.
func Idempotent(consumerName string, ledger Ledger, logger *slog.Logger, next bus.Handler) bus.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("consumer", consumerName)

	return func(ctx context.Context, evt contracts.Event) error {
		eventID := evt.EventMeta().EventID

		processed, err := ledger.IsProcessed(ctx, eventID, consumerName)
		if err != nil {
			return err
		}
		if processed {
			log.InfoContext(ctx, "event already processed, skipping",
				"event_id", eventID, "correlation_id", evt.EventMeta().CorrelationID)
			return nil
		}

		if err := next(ctx, evt); err != nil {
			return err
		}

		return ledger.MarkProcessed(ctx, eventID, consumerName)
	}
}
