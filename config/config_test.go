package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServiceLabel(t *testing.T) {
	cfg := AppConfig{}
	assert.Equal(t, "intake", cfg.ServiceLabel("intake"))

	cfg.ServiceName = "intake-eu-1"
	assert.Equal(t, "intake-eu-1", cfg.ServiceLabel("intake"))

	cfg.ServiceName = "   "
	assert.Equal(t, "intake", cfg.ServiceLabel("intake"))
}

func TestSanitizeGuardrails(t *testing.T) {
	cfg := AppConfig{
		Broker:    BrokerConfig{Concurrency: -1, MaxRetries: -5, RetryBase: -time.Second},
		Outbox:    OutboxConfig{PollInterval: 0, BatchSize: 0, MaxRetries: 0},
		Execution: ExecutionConfig{MaxRetries: -1, HandlerStepBase: -time.Second},
	}
	cfg.Sanitize()

	assert.Equal(t, 1, cfg.Broker.Concurrency)
	assert.Equal(t, 0, cfg.Broker.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Broker.RetryBase)

	assert.Equal(t, 5*time.Second, cfg.Outbox.PollInterval)
	assert.Equal(t, 1, cfg.Outbox.BatchSize)
	assert.Equal(t, 1, cfg.Outbox.MaxRetries)

	assert.Equal(t, 0, cfg.Execution.MaxRetries)
	assert.Equal(t, time.Duration(0), cfg.Execution.HandlerStepBase)
}
