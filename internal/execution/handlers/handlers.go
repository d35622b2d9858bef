// Package handlers contains the built-in task type handlers. Each one
// simulates a multi-step workload, reporting progress between steps and
// honoring context cancellation at every step boundary. Higher-priority
// tasks run with shorter step delays.
package handlers

import (
	"context"
	"time"

	"github.com/kostyavrode/TaskFlow/internal/execution"
	"github.com/kostyavrode/TaskFlow/internal/task"
)

// stepDelay returns the pause between work steps for the given priority.
// Critical work paces four times faster than Low.
func stepDelay(base time.Duration, priority string) time.Duration {
	return base / time.Duration(task.ParsePriority(priority).Level())
}

// pace sleeps for one step, reporting a progress sample first. It returns
// ctx.Err() when the run is cancelled mid-step.
func pace(ctx context.Context, progress chan<- execution.Progress, delay time.Duration, percent int, message string) error {
	select {
	case progress <- execution.Progress{Percent: percent, Message: message}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func timestamp() string {
	return time.Now().UTC().Format("20060102150405")
}
