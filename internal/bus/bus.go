// Package bus wraps the message broker behind a small gateway used by every
// TaskFlow service. The gateway owns queue naming, bounded redelivery with
// exponential backoff, and the per-consumer concurrency ceiling. Delivery is
// at-least-once; consumers narrow that to effectively-once with the
// idempotency ledger.
package bus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kostyavrode/TaskFlow/internal/contracts"
)

// Service names used for queue derivation. Every instance of one service
// consumes the same queues (competing consumers).
const (
	ServiceIntake   = "intake"
	ServiceExecutor = "executor"
	ServiceNotifier = "notifier"
)

// Handler processes one delivered event. A returned error hands the message
// back to the transport's retry policy; nil acknowledges it.
type Handler func(ctx context.Context, evt contracts.Event) error

// Gateway is the broker boundary for a single service: it publishes events
// and dispatches deliveries for the kinds the service subscribed to.
type Gateway interface {
	// Publish sends the event to every subscribed service's queue.
	Publish(ctx context.Context, evt contracts.Event) error
	// Subscribe registers the handler for one event kind. Must be called
	// before the gateway starts consuming.
	Subscribe(kind contracts.Kind, h Handler)
}

// subscriptions declares which services consume each event kind. The
// publisher fans out one message per subscribing service so that instances of
// the same service compete for a shared queue while distinct services each
// receive their own copy.
var subscriptions = map[contracts.Kind][]string{
	contracts.KindTaskCreated:   {ServiceExecutor, ServiceNotifier},
	contracts.KindTaskCancelled: {ServiceExecutor, ServiceNotifier},
	contracts.KindTaskStarted:   {ServiceIntake, ServiceNotifier},
	contracts.KindTaskProgress:  {ServiceNotifier},
	contracts.KindTaskCompleted: {ServiceIntake, ServiceNotifier},
	contracts.KindTaskFailed:    {ServiceIntake, ServiceNotifier},
}

// SubscribersOf returns the services that consume the given kind.
func SubscribersOf(kind contracts.Kind) []string {
	return subscriptions[kind]
}

// QueueName derives the shared queue for one (service, event kind) pair:
// lowercase, dash-separated, stable across releases.
func QueueName(service string, kind contracts.Kind) string {
	return fmt.Sprintf("%s-%s", strings.ToLower(service), strings.ReplaceAll(string(kind), ".", "-"))
}

// RetryBackoff returns the redelivery delay for the n-th retry (0-based):
// base, 2x, 4x, then flat at 4x for any later attempt.
func RetryBackoff(base time.Duration, n int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if n > 2 {
		n = 2
	}
	return base * time.Duration(1<<n)
}
