package bootstrap

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// RunUntilSignal runs every component until the first one fails or a
// termination signal arrives, then waits for all of them to drain. Components
// must return promptly once their context is cancelled.
func RunUntilSignal(ctx context.Context, logger *slog.Logger, components ...func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, gctx := errgroup.WithContext(ctx)
	for _, component := range components {
		group.Go(func() error { return component(gctx) })
	}

	<-gctx.Done()
	logger.InfoContext(ctx, "shutting down")
	return group.Wait()
}
