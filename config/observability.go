package config

// StatsDConfig contains metrics emission configuration.
type StatsDConfig struct {
	// Enabled turns metric emission on. Off by default; the services run
	// fine without a collector.
	Enabled bool `env:"ENABLED" envDefault:"false"`

	// Addr is the UDP address of the StatsD collector.
	Addr string `env:"ADDR" envDefault:"localhost:8125"`

	// Prefix is prepended to every metric name.
	Prefix string `env:"PREFIX" envDefault:"taskflow"`
}
