package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/kostyavrode/TaskFlow/internal/execution"
	"github.com/kostyavrode/TaskFlow/internal/task"
)

// Report generates a report file in several phases.
type Report struct {
	// StepBase is the per-step delay before priority scaling.
	StepBase time.Duration
}

func (Report) TaskType() string { return string(task.TypeReport) }

func (h Report) Handle(ctx context.Context, rec *execution.Record, progress chan<- execution.Progress) (execution.Result, error) {
	delay := stepDelay(h.base(), rec.Priority)
	steps := []struct {
		percent int
		message string
	}{
		{10, "Gathering report data"},
		{35, "Aggregating sections"},
		{65, "Rendering document"},
		{90, "Finalizing report"},
	}
	for _, step := range steps {
		if err := pace(ctx, progress, delay, step.percent, step.message); err != nil {
			return execution.Result{}, err
		}
	}
	location := fmt.Sprintf("files/reports/%s/report_%s.pdf", rec.TaskID, timestamp())
	return execution.Result{Location: location}, nil
}

func (h Report) base() time.Duration {
	if h.StepBase > 0 {
		return h.StepBase
	}
	return 500 * time.Millisecond
}
