// The executor binary consumes task signals, runs the type handlers, and
// reports lifecycle events back to the bus.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/kostyavrode/TaskFlow/internal/bootstrap"
	"github.com/kostyavrode/TaskFlow/internal/bus"
	"github.com/kostyavrode/TaskFlow/internal/execution"
	"github.com/kostyavrode/TaskFlow/internal/execution/handlers"
	"github.com/kostyavrode/TaskFlow/internal/idempotency"
	"github.com/kostyavrode/TaskFlow/internal/migrate"
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
	service := cfg.ServiceLabel(bus.ServiceExecutor)
	logger := bootstrap.InitLogger(cfg.IsDev).With("service", service)
	logger.InfoContext(ctx, "starting executor service",
		"db_host", cfg.Postgres.Host, "broker_addr", cfg.Broker.Addr)

	db, err := bootstrap.ConnectDB(cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()

	if cfg.Postgres.RunMigrationsOnStart {
		if err := migrate.Run(ctx, db, "executor"); err != nil {
			return err
		}
	}

	sink, err := bootstrap.InitStatsD(cfg.StatsD, service, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close statsd client failed", "error", cerr)
		}
	}()

	gateway := bus.NewAsynqGateway(bus.ServiceExecutor, bootstrap.BrokerClientOpt(cfg.Broker), bus.AsynqConfig{
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

	svc := execution.NewService(execution.ServiceOptions{
		Repo:       execution.NewSQLRepo(db),
		Registry:   handlers.DefaultRegistry(cfg.Execution.HandlerStepBase),
		Bus:        gateway,
		MaxRetries: cfg.Execution.MaxRetries,
		Logger:     logger,
	})

	execution.NewConsumers(svc, logger).Register(gateway, idempotency.NewSQLLedger(db))

	return bootstrap.RunUntilSignal(ctx, logger, gateway.Run)
}
