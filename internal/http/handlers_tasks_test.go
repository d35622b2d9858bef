package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kostyavrode/TaskFlow/internal/outbox"
	"github.com/kostyavrode/TaskFlow/internal/task"
	"github.com/kostyavrode/TaskFlow/internal/testutil"
)

func newTestRouter(t *testing.T) (http.Handler, *task.Service) {
	t.Helper()
	svc, err := task.NewService(task.ServiceOptions{
		Repo:   task.NewMemoryRepo(),
		Outbox: outbox.NewMemoryStore(5),
		Logger: testutil.Logger(),
	})
	require.NoError(t, err)
	return NewRouter(RouterServices{Tasks: svc, Logger: testutil.Logger()}), svc
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createTask(t *testing.T, h http.Handler, userID string) TaskResponse {
	t.Helper()
	body := fmt.Sprintf(`{"userId":%q,"taskType":"Report","priority":"High","payload":"{}"}`, userID)
	rec := doRequest(t, h, http.MethodPost, "/api/tasks", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateTaskEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := createTask(t, router, "user-1")
	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Equal(t, "user-1", resp.UserID)
	assert.Equal(t, "Report", resp.TaskType)
	assert.Equal(t, "High", resp.Priority)
	assert.Equal(t, "Pending", resp.Status)
	assert.NotEmpty(t, resp.CreatedAt)
}

func TestCreateTaskValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/tasks",
		`{"taskType":"Report","priority":"High"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation")

	rec = doRequest(t, router, http.MethodPost, "/api/tasks", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_json")
}

func TestGetTaskEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	created := createTask(t, router, "user-1")

	rec := doRequest(t, router, http.MethodGet,
		fmt.Sprintf("/api/tasks/%s?userId=user-1", created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, created.ID, resp.ID)

	// Another caller's lookup reads as not found.
	rec = doRequest(t, router, http.MethodGet,
		fmt.Sprintf("/api/tasks/%s?userId=user-2", created.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Malformed id and missing userId are rejected before the service runs.
	rec = doRequest(t, router, http.MethodGet, "/api/tasks/not-a-uuid?userId=user-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/tasks/"+created.ID.String(), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelTaskEndpoint(t *testing.T) {
	router, svc := newTestRouter(t)
	created := createTask(t, router, "user-1")

	rec := doRequest(t, router, http.MethodPost,
		fmt.Sprintf("/api/tasks/%s/cancel?userId=user-1", created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := svc.Get(context.Background(), created.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusCancelled, got.Status)

	// A second cancel hits the terminal state and conflicts.
	rec = doRequest(t, router, http.MethodPost,
		fmt.Sprintf("/api/tasks/%s/cancel?userId=user-1", created.ID), "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Cancelling someone else's task is forbidden.
	other := createTask(t, router, "user-2")
	rec = doRequest(t, router, http.MethodPost,
		fmt.Sprintf("/api/tasks/%s/cancel?userId=user-1", other.ID), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListUserTasksEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	createTask(t, router, "user-1")
	createTask(t, router, "user-1")
	createTask(t, router, "user-2")

	rec := doRequest(t, router, http.MethodGet, "/api/tasks/user/user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	for _, tr := range resp {
		assert.Equal(t, "user-1", tr.UserID)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
