// The notifier binary turns lifecycle events into push notifications over
// Redis pub/sub. It keeps no state of its own.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/kostyavrode/TaskFlow/internal/bootstrap"
	"github.com/kostyavrode/TaskFlow/internal/bus"
	"github.com/kostyavrode/TaskFlow/internal/notification"
)

func main() {
	ctx := context.Background()
	if err := run(ctx); err != nil {
		slog.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	service := cfg.ServiceLabel(bus.ServiceNotifier)
	logger := bootstrap.InitLogger(cfg.IsDev).With("service", service)
	logger.InfoContext(ctx, "starting notifier service", "broker_addr", cfg.Broker.Addr)

	rdb, err := bootstrap.ConnectRedis(cfg.Broker, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rdb.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}()

	sink, err := bootstrap.InitStatsD(cfg.StatsD, service, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close statsd client failed", "error", cerr)
		}
	}()

	gateway := bus.NewAsynqGateway(bus.ServiceNotifier, bootstrap.BrokerClientOpt(cfg.Broker), bus.AsynqConfig{
		Concurrency: cfg.Broker.Concurrency,
		MaxRetry:    cfg.Broker.MaxRetries,
		RetryBase:   cfg.Broker.RetryBase,
		Metrics:     sink,
	}, logger)
	defer func() {
		if cerr := gateway.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close broker client failed", "error", cerr)
		}
	}()

	hub := notification.NewRedisHub(rdb, logger)
	notification.NewConsumers(hub, logger).Register(gateway)

	return bootstrap.RunUntilSignal(ctx, logger, gateway.Run)
}
