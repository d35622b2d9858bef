// Package metrics defines the standardised metric shapes the services emit.
package metrics

import (
	"time"

	apperrors "github.com/kostyavrode/TaskFlow/internal/errors"
	"github.com/kostyavrode/TaskFlow/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultDropped = "dropped"
)

// DeliveryMetric captures one event delivery attempt on a service's queue.
type DeliveryMetric struct {
	Kind     string
	Service  string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitDelivery emits standardised event delivery metrics.
func EmitDelivery(sink statsd.Sink, in DeliveryMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"kind":    in.Kind,
		"service": in.Service,
		"result":  in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		tags["error_class"] = string(apperrors.Code(in.Err))
	}

	sink.Count("event.delivery", 1, tags)
	if in.Duration > 0 {
		sink.Timing("event.delivery_time", in.Duration, CloneTags(tags))
	}
}

// RelayMetric captures one outbox relay attempt.
type RelayMetric struct {
	Kind   string
	Result string
}

// EmitRelay emits outbox relay metrics.
func EmitRelay(sink statsd.Sink, in RelayMetric) {
	if sink == nil {
		return
	}
	sink.Count("outbox.relay", 1, map[string]string{
		"kind":   in.Kind,
		"result": in.Result,
	})
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k != "" {
			out[k] = v
		}
	}
	return out
}
