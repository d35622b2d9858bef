package httpx

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/kostyavrode/TaskFlow/internal/task"
)

// TaskHandlers provides HTTP handlers for task intake operations.
type TaskHandlers struct {
	Svc *task.Service
}

// TaskResponse is the JSON shape of a task in API responses.
type TaskResponse struct {
	ID             uuid.UUID `json:"id"`
	UserID         string    `json:"userId"`
	TaskType       string    `json:"taskType"`
	Priority       string    `json:"priority"`
	Status         string    `json:"status"`
	Payload        string    `json:"payload,omitempty"`
	ScheduledAt    any       `json:"scheduledAt,omitempty"`
	ResultLocation string    `json:"resultLocation,omitempty"`
	CreatedAt      string    `json:"createdAt"`
	UpdatedAt      string    `json:"updatedAt"`
}

func toResponse(t *task.Task) TaskResponse {
	resp := TaskResponse{
		ID:             t.ID,
		UserID:         t.UserID,
		TaskType:       string(t.Type),
		Priority:       string(t.Priority),
		Status:         string(t.Status),
		Payload:        t.Payload,
		ResultLocation: t.ResultLocation,
		CreatedAt:      t.CreatedAt.Format(timeLayout),
		UpdatedAt:      t.UpdatedAt.Format(timeLayout),
	}
	if t.ScheduledAt != nil {
		resp.ScheduledAt = t.ScheduledAt.Format(timeLayout)
	}
	return resp
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// CreateTask handles HTTP requests to submit a new task.
func (h *TaskHandlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req task.CreateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	t, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, toResponse(t))
}

// GetTask handles HTTP requests to fetch one task owned by the caller.
func (h *TaskHandlers) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, userID, ok := taskRequestParams(w, r)
	if !ok {
		return
	}

	t, err := h.Svc.Get(r.Context(), taskID, userID)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, toResponse(t))
}

// ListUserTasks handles HTTP requests to list a user's tasks, newest first.
func (h *TaskHandlers) ListUserTasks(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		WriteError(w, ErrorParams{
			Code: http.StatusBadRequest, ErrCode: "invalid_path",
			Err: errors.New("user id is required"),
		})
		return
	}

	tasks, err := h.Svc.ListByUser(r.Context(), userID)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toResponse(t))
	}
	WriteJSON(w, http.StatusOK, out)
}

// CancelTask handles HTTP requests to cancel a task owned by the caller.
func (h *TaskHandlers) CancelTask(w http.ResponseWriter, r *http.Request) {
	taskID, userID, ok := taskRequestParams(w, r)
	if !ok {
		return
	}

	if err := h.Svc.Cancel(r.Context(), taskID, userID); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "cancellation requested"})
}

// taskRequestParams extracts the task id path segment and the userId query
// parameter shared by the single-task endpoints.
func taskRequestParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool) {
	taskID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, ErrorParams{
			Code: http.StatusBadRequest, ErrCode: "invalid_path",
			Err: errors.New("task id must be a UUID"),
		})
		return uuid.Nil, "", false
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		WriteError(w, ErrorParams{
			Code: http.StatusBadRequest, ErrCode: "invalid_query",
			Err: errors.New("userId query parameter is required"),
		})
		return uuid.Nil, "", false
	}
	return taskID, userID, true
}
