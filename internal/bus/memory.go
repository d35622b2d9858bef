package bus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kostyavrode/TaskFlow/internal/contracts"
)

// MemoryBus is an in-process broker with the same dispatch semantics as the
// asynq gateway: publish fans out to every registered (service, kind)
// subscription and failed handlers are redelivered up to MaxRetry times.
// Delivery is synchronous, which makes cross-service flows deterministic in
// tests.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[string]map[contracts.Kind]Handler
	maxRetry int
	logger   *slog.Logger
}

// NewMemoryBus creates an in-process bus. maxRetry bounds redeliveries per
// message, mirroring the transport policy.
func NewMemoryBus(maxRetry int, logger *slog.Logger) *MemoryBus {
	if maxRetry < 0 {
		maxRetry = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryBus{
		handlers: make(map[string]map[contracts.Kind]Handler),
		maxRetry: maxRetry,
		logger:   logger.With("component", "memory_bus"),
	}
}

// Gateway returns the Gateway view for one service, sharing this bus.
func (b *MemoryBus) Gateway(service string) Gateway {
	return &memoryGateway{bus: b, service: service}
}

func (b *MemoryBus) subscribe(service string, kind contracts.Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[service] == nil {
		b.handlers[service] = make(map[contracts.Kind]Handler)
	}
	b.handlers[service][kind] = h
}

func (b *MemoryBus) publish(ctx context.Context, evt contracts.Event) error {
	payload, err := contracts.Encode(evt)
	if err != nil {
		return err
	}
	kind := evt.Kind()

	b.mu.RLock()
	type delivery struct {
		service string
		handler Handler
	}
	var deliveries []delivery
	for svc, byKind := range b.handlers {
		if h, ok := byKind[kind]; ok {
			deliveries = append(deliveries, delivery{service: svc, handler: h})
		}
	}
	b.mu.RUnlock()

	for _, d := range deliveries {
		b.deliver(ctx, d.service, kind, payload, d.handler)
	}
	return nil
}

// deliver re-decodes the payload per attempt so handlers observe independent
// event values, matching broker redelivery.
func (b *MemoryBus) deliver(ctx context.Context, service string, kind contracts.Kind, payload []byte, h Handler) {
	for attempt := 0; ; attempt++ {
		evt, err := contracts.Decode(kind, payload)
		if err != nil {
			b.logger.ErrorContext(ctx, "dropping undecodable event", "kind", kind, "error", err)
			return
		}
		if err := h(ctx, evt); err == nil {
			return
		} else if attempt >= b.maxRetry {
			b.logger.WarnContext(ctx, "handler exhausted retries",
				"service", service, "kind", kind, "attempts", attempt+1, "error", err)
			return
		}
	}
}

type memoryGateway struct {
	bus     *MemoryBus
	service string
}

func (g *memoryGateway) Publish(ctx context.Context, evt contracts.Event) error {
	return g.bus.publish(ctx, evt)
}

func (g *memoryGateway) Subscribe(kind contracts.Kind, h Handler) {
	g.bus.subscribe(g.service, kind, h)
}
