// The intake binary serves the task API, relays the outbox, and applies
// task state updates reported back by the executor.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/kostyavrode/TaskFlow/internal/bootstrap"
	"github.com/kostyavrode/TaskFlow/internal/bus"
	httpx "github.com/kostyavrode/TaskFlow/internal/http"
	"github.com/kostyavrode/TaskFlow/internal/idempotency"
	"github.com/kostyavrode/TaskFlow/internal/migrate"
	"github.com/kostyavrode/TaskFlow/internal/outbox"
	"github.com/kostyavrode/TaskFlow/internal/task"
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
	service := cfg.ServiceLabel(bus.ServiceIntake)
	logger := bootstrap.InitLogger(cfg.IsDev).With("service", service)
	logger.InfoContext(ctx, "starting intake service",
		"db_host", cfg.Postgres.Host, "http_addr", cfg.HTTP.Addr)

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
		if err := migrate.Run(ctx, db, "intake"); err != nil {
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

	gateway := bus.NewAsynqGateway(bus.ServiceIntake, bootstrap.BrokerClientOpt(cfg.Broker), bus.AsynqConfig{
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

	outboxStore := outbox.NewSQLStore(db, cfg.Outbox.MaxRetries)
	taskRepo := task.NewSQLRepo(db)
	taskSvc, err := task.NewService(task.ServiceOptions{
		Repo:   taskRepo,
		Outbox: outboxStore,
		DB:     db,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	task.NewConsumers(taskRepo, logger).Register(gateway, idempotency.NewSQLLedger(db))

	relay := outbox.NewProcessor(outbox.ProcessorOptions{
		Store:        outboxStore,
		Publisher:    gateway,
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		Logger:       logger,
		Metrics:      sink,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpx.NewRouter(httpx.RouterServices{Tasks: taskSvc, Logger: logger}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return bootstrap.RunUntilSignal(ctx, logger,
		gateway.Run,
		relay.Run,
		func(ctx context.Context) error {
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if serr := server.Shutdown(shutdownCtx); serr != nil {
					logger.Error("http shutdown failed", "error", serr)
				}
			}()
			if serr := server.ListenAndServe(); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
				return serr
			}
			return nil
		},
	)
}
