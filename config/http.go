package config

// HTTPConfig contains HTTP server configuration for the intake service.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`
}
