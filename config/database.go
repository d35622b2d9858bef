package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"taskflow"`
	Password string `env:"PASSWORD" envDefault:"taskflow"`
	Name     string `env:"NAME"     envDefault:"taskflow"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the service automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// BrokerConfig contains the Redis connection and delivery policy for the
// event bus. The same Redis instance also carries notification pub/sub.
type BrokerConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`

	// Concurrency is the number of worker goroutines consuming events.
	Concurrency int `env:"CONCURRENCY" envDefault:"8"`

	// MaxRetries is how many times a failed event delivery is retried
	// before it is moved to the dead letter archive.
	MaxRetries int `env:"MAX_RETRIES" envDefault:"3"`

	// RetryBase is the first retry delay; later retries double it.
	RetryBase time.Duration `env:"RETRY_BASE" envDefault:"2s"`
}

// Sanitize applies guardrails to broker configuration values.
func (b *BrokerConfig) Sanitize() {
	if b.Concurrency < 1 {
		b.Concurrency = 1
	}
	if b.MaxRetries < 0 {
		b.MaxRetries = 0
	}
	if b.RetryBase <= 0 {
		b.RetryBase = 2 * time.Second
	}
}
