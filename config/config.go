// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct shared by all three
// services. Each binary reads the sections it needs.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config files for
// the available environment variables:
//   - database.go: Postgres and broker configuration
//   - http.go: HTTP server configuration
//   - processing.go: Outbox and execution tuning
//   - observability.go: Metrics emission
type AppConfig struct {
	// IsDev controls development mode behavior (text log output, etc.)
	// Set DEV=true or APP_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// ServiceName overrides the service label used in logging and metrics
	// tags. Queue identity is fixed per binary and not affected.
	ServiceName string `env:"SERVICE_NAME" envDefault:""`

	// Database configuration
	Postgres DBConfig `envPrefix:"DB_"`

	// Broker configuration (Redis, shared by the bus and notifications)
	Broker BrokerConfig `envPrefix:"BROKER_"`

	// HTTP server configuration (intake service only)
	HTTP HTTPConfig

	// Outbox relay configuration (intake service only)
	Outbox OutboxConfig `envPrefix:"OUTBOX_"`

	// Execution configuration (executor service only)
	Execution ExecutionConfig `envPrefix:"EXECUTION_"`

	// Metrics emission configuration
	StatsD StatsDConfig `envPrefix:"STATSD_"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Broker.Sanitize()
	c.Outbox.Sanitize()
	c.Execution.Sanitize()
	c.detectDevMode()
}

// ServiceLabel returns the configured service name, or the fallback when
// none is set.
func (c *AppConfig) ServiceLabel(fallback string) string {
	if s := strings.TrimSpace(c.ServiceName); s != "" {
		return s
	}
	return fallback
}

// detectDevMode checks both DEV and APP_ENV environment variables.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}
