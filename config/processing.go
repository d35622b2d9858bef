package config

import "time"

// OutboxConfig tunes the outbox relay in the intake service.
type OutboxConfig struct {
	// PollInterval is how often the relay scans for unprocessed messages.
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`

	// BatchSize caps how many messages one scan picks up.
	BatchSize int `env:"BATCH_SIZE" envDefault:"100"`

	// MaxRetries is the publish attempt ceiling per message; messages at
	// the ceiling stay in the table for inspection but are no longer picked up.
	MaxRetries int `env:"MAX_RETRIES" envDefault:"5"`
}

// Sanitize applies guardrails to outbox configuration values.
func (o *OutboxConfig) Sanitize() {
	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}
	if o.BatchSize < 1 {
		o.BatchSize = 1
	}
	if o.MaxRetries < 1 {
		o.MaxRetries = 1
	}
}

// ExecutionConfig tunes the executor service.
type ExecutionConfig struct {
	// MaxRetries caps how many times a failed task execution re-enters the loop.
	MaxRetries int `env:"MAX_RETRIES" envDefault:"3"`

	// HandlerStepBase is the base delay between simulated work steps,
	// scaled down by task priority. Zero keeps the per-handler defaults.
	HandlerStepBase time.Duration `env:"HANDLER_STEP_BASE" envDefault:"0"`
}

// Sanitize applies guardrails to execution configuration values.
func (e *ExecutionConfig) Sanitize() {
	if e.MaxRetries < 0 {
		e.MaxRetries = 0
	}
	if e.HandlerStepBase < 0 {
		e.HandlerStepBase = 0
	}
}
