package bootstrap

import (
	"log/slog"

	"github.com/kostyavrode/TaskFlow/config"
	"github.com/kostyavrode/TaskFlow/internal/observability/statsd"
)

// InitStatsD builds the metrics client for one service. Disabled config
// yields a client that swallows every call.
func InitStatsD(cfg config.StatsDConfig, service string, logger *slog.Logger) (*statsd.Client, error) {
	return statsd.NewClient(statsd.Config{
		Enabled:    cfg.Enabled,
		Address:    cfg.Addr,
		Prefix:     cfg.Prefix,
		Logger:     logger,
		GlobalTags: map[string]string{"service": service},
	})
}
