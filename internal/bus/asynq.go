package bus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kostyavrode/TaskFlow/internal/contracts"
	"github.com/kostyavrode/TaskFlow/internal/observability/metrics"
	"github.com/kostyavrode/TaskFlow/internal/observability/statsd"
)

// AsynqConfig holds the broker-side policy knobs for one service gateway.
type AsynqConfig struct {
	// Concurrency bounds in-flight handler invocations for this consumer
	// (admission control). Defaults to 8.
	Concurrency int
	// MaxRetry bounds automatic redeliveries before the transport archives
	// the message (dead-letter). Defaults to 3.
	MaxRetry int
	// RetryBase is the first redelivery delay; subsequent delays double.
	// Defaults to 2s.
	RetryBase time.Duration
	// Metrics receives delivery counters and timings. Optional.
	Metrics statsd.Sink
}

func (c *AsynqConfig) sanitize() {
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
	if c.MaxRetry <= 0 {
		c.MaxRetry = 3
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 2 * time.Second
	}
}

// AsynqGateway implements Gateway over a Redis-backed asynq broker. One
// gateway serves one logical service: it consumes the queues derived for that
// service and publishes fan-out copies for every subscriber.
type AsynqGateway struct {
	service  string
	client   *asynq.Client
	redisOpt asynq.RedisClientOpt
	cfg      AsynqConfig
	handlers map[contracts.Kind]Handler
	logger   *slog.Logger
}

// NewAsynqGateway creates a gateway for the named service.
func NewAsynqGateway(service string, redisOpt asynq.RedisClientOpt, cfg AsynqConfig, logger *slog.Logger) *AsynqGateway {
	cfg.sanitize()
	if logger == nil {
		logger = slog.Default()
	}
	return &AsynqGateway{
		service:  service,
		client:   asynq.NewClient(redisOpt),
		redisOpt: redisOpt,
		cfg:      cfg,
		handlers: make(map[contracts.Kind]Handler),
		logger:   logger.With("component", "bus", "service", service),
	}
}

// Publish enqueues one copy of the event per subscribing service queue.
func (g *AsynqGateway) Publish(ctx context.Context, evt contracts.Event) error {
	payload, err := contracts.Encode(evt)
	if err != nil {
		return err
	}

	kind := evt.Kind()
	for _, svc := range SubscribersOf(kind) {
		task := asynq.NewTask(string(kind), payload)
		opts := []asynq.Option{
			asynq.Queue(QueueName(svc, kind)),
			asynq.MaxRetry(g.cfg.MaxRetry),
		}
		if _, err := g.client.EnqueueContext(ctx, task, opts...); err != nil {
			return fmt.Errorf("publish %s to %s: %w", kind, svc, err)
		}
	}
	return nil
}

// Subscribe registers a handler for an event kind. Not safe to call after Run.
func (g *AsynqGateway) Subscribe(kind contracts.Kind, h Handler) {
	g.handlers[kind] = h
}

// Run consumes the service's queues until the context is canceled.
func (g *AsynqGateway) Run(ctx context.Context) error {
	queues := make(map[string]int, len(g.handlers))
	for kind := range g.handlers {
		queues[QueueName(g.service, kind)] = 1
	}

	srv := asynq.NewServer(g.redisOpt, asynq.Config{
		Concurrency: g.cfg.Concurrency,
		Queues:      queues,
		RetryDelayFunc: func(n int, _ error, _ *asynq.Task) time.Duration {
			return RetryBackoff(g.cfg.RetryBase, n)
		},
	})

	mux := asynq.NewServeMux()
	for kind, h := range g.handlers {
		mux.HandleFunc(string(kind), g.dispatch(kind, h))
	}

	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("start broker consumer: %w", err)
	}
	g.logger.InfoContext(ctx, "broker consumer started",
		"queues", len(queues), "concurrency", g.cfg.Concurrency)

	<-ctx.Done()
	srv.Shutdown()
	g.logger.Info("broker consumer stopped")
	return nil
}

// Close releases the publishing client.
func (g *AsynqGateway) Close() error {
	return g.client.Close()
}

func (g *AsynqGateway) dispatch(kind contracts.Kind, h Handler) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		evt, err := contracts.Decode(kind, t.Payload())
		if err != nil {
			// Undecodable payloads can never succeed; skip retries and let
			// the transport archive the message.
			g.logger.ErrorContext(ctx, "dropping undecodable event", "kind", kind, "error", err)
			metrics.EmitDelivery(g.cfg.Metrics, metrics.DeliveryMetric{
				Kind: string(kind), Service: g.service, Result: metrics.ResultDropped,
			})
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}

		start := time.Now()
		herr := h(ctx, evt)
		result := metrics.ResultSuccess
		if herr != nil {
			result = metrics.ResultError
		}
		metrics.EmitDelivery(g.cfg.Metrics, metrics.DeliveryMetric{
			Kind: string(kind), Service: g.service, Result: result,
			Duration: time.Since(start), Err: herr,
		})
		return herr
	}
}
