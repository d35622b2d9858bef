package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/kostyavrode/TaskFlow/internal/execution"
	"github.com/kostyavrode/TaskFlow/internal/task"
)

// DataProcessing simulates a batch transform over the payload.
type DataProcessing struct {
	StepBase time.Duration
}

func (DataProcessing) TaskType() string { return string(task.TypeDataProcessing) }

func (h DataProcessing) Handle(ctx context.Context, rec *execution.Record, progress chan<- execution.Progress) (execution.Result, error) {
	delay := stepDelay(h.base(), rec.Priority)
	steps := []struct {
		percent int
		message string
	}{
		{5, "Loading input data"},
		{25, "Validating records"},
		{50, "Transforming records"},
		{80, "Writing output"},
		{95, "Verifying output"},
	}
	for _, step := range steps {
		if err := pace(ctx, progress, delay, step.percent, step.message); err != nil {
			return execution.Result{}, err
		}
	}
	location := fmt.Sprintf("data/%s/processed_%s.parquet", rec.TaskID, timestamp())
	return execution.Result{Location: location}, nil
}

func (h DataProcessing) base() time.Duration {
	if h.StepBase > 0 {
		return h.StepBase
	}
	return 700 * time.Millisecond
}
