package httpx

import (
	"log/slog"
	"net/http"

	"github.com/kostyavrode/TaskFlow/internal/task"
)

// RouterServices holds the services needed by the HTTP router.
type RouterServices struct {
	Tasks  *task.Service
	Logger *slog.Logger
}

// NewRouter creates and configures the intake API router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	taskHandlers := &TaskHandlers{Svc: services.Tasks}

	mux.HandleFunc("POST /api/tasks", taskHandlers.CreateTask)
	mux.HandleFunc("GET /api/tasks/{id}", taskHandlers.GetTask)
	mux.HandleFunc("POST /api/tasks/{id}/cancel", taskHandlers.CancelTask)
	mux.HandleFunc("GET /api/tasks/user/{userId}", taskHandlers.ListUserTasks)
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}
