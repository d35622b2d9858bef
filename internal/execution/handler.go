package execution

import (
	"context"
	"strings"
)

// Progress is one report emitted by a running handler.
type Progress struct {
	Percent int
	Message string
}

// Result is what a handler produces on success.
type Result struct {
	Location string
}

// Handler performs the actual work for one task type. Implementations send
// progress reports on the channel and honor ctx cancellation between steps.
type Handler interface {
	TaskType() string
	Handle(ctx context.Context, rec *Record, progress chan<- Progress) (Result, error)
}

// Registry dispatches records to handlers by task type, case-insensitively.
// An unknown type falls back to the default handler when one is set.
type Registry struct {
	handlers map[string]Handler
	fallback Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(h Handler) {
	r.handlers[strings.ToLower(h.TaskType())] = h
}

func (r *Registry) SetDefault(h Handler) {
	r.fallback = h
}

// Resolve returns the handler for the given task type, or the default one.
// The second return is false only when no match and no default exist.
func (r *Registry) Resolve(taskType string) (Handler, bool) {
	if h, ok := r.handlers[strings.ToLower(taskType)]; ok {
		return h, true
	}
	if r.fallback != nil {
		return r.fallback, true
	}
	return nil, false
}
