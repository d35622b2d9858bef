package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/kostyavrode/TaskFlow/internal/execution"
	"github.com/kostyavrode/TaskFlow/internal/task"
)

// Email simulates composing and sending a message. The payload is treated
// as the recipient address when it looks like one.
type Email struct {
	StepBase time.Duration
}

func (Email) TaskType() string { return string(task.TypeEmail) }

func (h Email) Handle(ctx context.Context, rec *execution.Record, progress chan<- execution.Progress) (execution.Result, error) {
	delay := stepDelay(h.base(), rec.Priority)
	steps := []struct {
		percent int
		message string
	}{
		{20, "Composing message"},
		{60, "Sending message"},
		{95, "Awaiting delivery confirmation"},
	}
	for _, step := range steps {
		if err := pace(ctx, progress, delay, step.percent, step.message); err != nil {
			return execution.Result{}, err
		}
	}
	return execution.Result{Location: "email://" + recipient(rec.Payload)}, nil
}

func (h Email) base() time.Duration {
	if h.StepBase > 0 {
		return h.StepBase
	}
	return 300 * time.Millisecond
}

func recipient(payload string) string {
	addr := strings.TrimSpace(payload)
	if strings.Contains(addr, "@") && !strings.ContainsAny(addr, " \t\n") {
		return addr
	}
	return "user"
}
