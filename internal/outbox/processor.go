package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/kostyavrode/TaskFlow/internal/contracts"
	"github.com/kostyavrode/TaskFlow/internal/observability/metrics"
	"github.com/kostyavrode/TaskFlow/internal/observability/statsd"
)

// Publisher is the broker-facing half of the event bus gateway.
type Publisher interface {
	Publish(ctx context.Context, evt contracts.Event) error
}

const (
	defaultPollInterval = 5 * time.Second
	defaultBatchSize    = 100
)

// ProcessorOptions configures the outbox processor loop.
type ProcessorOptions struct {
	Store     Store
	Publisher Publisher
	// PollInterval between drain passes. Defaults to 5s.
	PollInterval time.Duration
	// BatchSize per drain pass. Defaults to 100.
	BatchSize int
	Logger    *slog.Logger
	// Metrics receives relay counters. Optional.
	Metrics statsd.Sink
}

// Processor drains the outbox store through the event bus gateway. One
// processor runs per process; messages in a batch publish sequentially and a
// failure is isolated to its own message. Running more than one processor
// per service would double-publish (no claim/lease mechanism).
type Processor struct {
	store     Store
	publisher Publisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	metrics   statsd.Sink
}

// NewProcessor creates a processor from options, applying defaults.
func NewProcessor(opts ProcessorOptions) *Processor {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		store:     opts.Store,
		publisher: opts.Publisher,
		interval:  interval,
		batchSize: batch,
		logger:    logger.With("component", "outbox_processor"),
		metrics:   opts.Metrics,
	}
}

// Run polls until the context is canceled.
func (p *Processor) Run(ctx context.Context) error {
	p.logger.InfoContext(ctx, "outbox processor started", "poll_interval", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox processor stopped")
			return nil
		case <-ticker.C:
			if err := p.ProcessBatch(ctx); err != nil {
				p.logger.ErrorContext(ctx, "outbox drain pass failed", "error", err)
			}
		}
	}
}

// ProcessBatch drains one batch. Only the batch query itself can fail the
// pass; per-message publish errors are recorded on the row and retried on a
// later pass, so a poisoned message never blocks the rest of the batch.
func (p *Processor) ProcessBatch(ctx context.Context) error {
	msgs, err := p.store.GetUnprocessed(ctx, p.batchSize)
	if err != nil {
		return err
	}

	for _, m := range msgs {
		p.processMessage(ctx, m)
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, m *Message) {
	evt, err := contracts.Decode(m.EventType, m.Payload)
	if err != nil {
		// Unknown or undecodable kinds can never succeed; the row keeps
		// failing until the retry ceiling parks it for an operator.
		p.logger.WarnContext(ctx, "outbox message is undecodable",
			"message_id", m.ID, "event_type", m.EventType, "error", err)
		p.markFailed(ctx, m, err.Error())
		metrics.EmitRelay(p.metrics, metrics.RelayMetric{
			Kind: string(m.EventType), Result: metrics.ResultDropped,
		})
		return
	}

	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.ErrorContext(ctx, "outbox publish failed",
			"message_id", m.ID, "event_type", m.EventType, "error", err)
		p.markFailed(ctx, m, err.Error())
		metrics.EmitRelay(p.metrics, metrics.RelayMetric{
			Kind: string(m.EventType), Result: metrics.ResultError,
		})
		return
	}

	if err := p.store.MarkProcessed(ctx, m.ID); err != nil {
		p.logger.ErrorContext(ctx, "mark outbox message processed failed",
			"message_id", m.ID, "error", err)
		return
	}
	p.logger.DebugContext(ctx, "outbox message published",
		"message_id", m.ID, "event_type", m.EventType)
	metrics.EmitRelay(p.metrics, metrics.RelayMetric{
		Kind: string(m.EventType), Result: metrics.ResultSuccess,
	})
}

func (p *Processor) markFailed(ctx context.Context, m *Message, reason string) {
	if err := p.store.MarkFailed(ctx, m.ID, reason); err != nil {
		p.logger.ErrorContext(ctx, "mark outbox message failed errored",
			"message_id", m.ID, "error", err)
	}
}
