package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/kostyavrode/TaskFlow/internal/execution"
)

// Generic handles any task type without a dedicated handler. It runs a short
// two-phase pass and drops a JSON result marker.
type Generic struct {
	StepBase time.Duration
}

func (Generic) TaskType() string { return "Generic" }

func (h Generic) Handle(ctx context.Context, rec *execution.Record, progress chan<- execution.Progress) (execution.Result, error) {
	delay := stepDelay(h.base(), rec.Priority)
	steps := []struct {
		percent int
		message string
	}{
		{30, "Processing task"},
		{80, "Storing result"},
	}
	for _, step := range steps {
		if err := pace(ctx, progress, delay, step.percent, step.message); err != nil {
			return execution.Result{}, err
		}
	}
	location := fmt.Sprintf("results/%s/%s.json", rec.TaskID, timestamp())
	return execution.Result{Location: location}, nil
}

func (h Generic) base() time.Duration {
	if h.StepBase > 0 {
		return h.StepBase
	}
	return 400 * time.Millisecond
}

// DefaultRegistry builds the registry with every built-in handler wired and
// Generic as the fallback for Notification, Backup and unknown types.
func DefaultRegistry(stepBase time.Duration) *execution.Registry {
	r := execution.NewRegistry()
	r.Register(Report{StepBase: stepBase})
	r.Register(Email{StepBase: stepBase})
	r.Register(DataProcessing{StepBase: stepBase})
	r.SetDefault(Generic{StepBase: stepBase})
	return r
}
