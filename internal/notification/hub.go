package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub delivers notifications to per-user and per-task channels.
type Hub interface {
	NotifyUser(ctx context.Context, n Notification) error
	NotifyTask(ctx context.Context, n Notification) error
}

func userChannel(userID string) string {
	return "taskflow:user:" + userID
}

func taskChannel(taskID uuid.UUID) string {
	return "taskflow:task:" + taskID.String()
}

// RedisHub publishes notifications as JSON over Redis pub/sub. Subscribers
// (websocket gateways, CLIs) listen on the channel for their user or task.
type RedisHub struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewRedisHub(rdb *redis.Client, logger *slog.Logger) *RedisHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisHub{rdb: rdb, logger: logger.With("component", "notification_hub")}
}

func (h *RedisHub) NotifyUser(ctx context.Context, n Notification) error {
	return h.publish(ctx, userChannel(n.UserID), n)
}

func (h *RedisHub) NotifyTask(ctx context.Context, n Notification) error {
	return h.publish(ctx, taskChannel(n.TaskID), n)
}

func (h *RedisHub) publish(ctx context.Context, channel string, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := h.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification to %s: %w", channel, err)
	}
	h.logger.DebugContext(ctx, "notification delivered",
		"channel", channel, "event_type", n.EventType, "task_id", n.TaskID)
	return nil
}

// MemoryHub collects notifications in memory for tests.
type MemoryHub struct {
	mu     sync.Mutex
	byUser map[string][]Notification
	byTask map[uuid.UUID][]Notification
}

func NewMemoryHub() *MemoryHub {
	return &MemoryHub{
		byUser: make(map[string][]Notification),
		byTask: make(map[uuid.UUID][]Notification),
	}
}

func (h *MemoryHub) NotifyUser(_ context.Context, n Notification) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byUser[n.UserID] = append(h.byUser[n.UserID], n)
	return nil
}

func (h *MemoryHub) NotifyTask(_ context.Context, n Notification) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byTask[n.TaskID] = append(h.byTask[n.TaskID], n)
	return nil
}

// UserNotifications returns a copy of everything pushed to the user channel.
func (h *MemoryHub) UserNotifications(userID string) []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Notification, len(h.byUser[userID]))
	copy(out, h.byUser[userID])
	return out
}

// TaskNotifications returns a copy of everything pushed to the task channel.
func (h *MemoryHub) TaskNotifications(taskID uuid.UUID) []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Notification, len(h.byTask[taskID]))
	copy(out, h.byTask[taskID])
	return out
}
