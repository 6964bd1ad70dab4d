package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"tasksync/domain"
)

// TaskCreateRequest is the body of a task creation call.
type TaskCreateRequest struct {
	Title        string            `json:"title"`
	Description  *string           `json:"description,omitempty"`
	Priority     domain.Priority   `json:"priority,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	DueDate      *domain.Timestamp `json:"due_date,omitempty"`
	Recurrence   domain.Recurrence `json:"recurrence_pattern,omitempty"`
	ReminderTime *domain.Timestamp `json:"reminder_time,omitempty"`
}

// TaskUpdateRequest carries the changed fields of a task update call.
type TaskUpdateRequest struct {
	TaskID string `json:"task_id"`
	domain.TaskFields
}

// ListTasks fetches the user's full task list, the seed for the local
// projection.
func (c *Client) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := c.get(ctx, tasksPath(userID), &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask creates a task and returns the backend's view of it.
func (c *Client) CreateTask(ctx context.Context, userID string, req TaskCreateRequest) (domain.Task, error) {
	var created domain.Task
	if err := c.do(ctx, http.MethodPost, tasksPath(userID), uuid.NewString(), req, &created); err != nil {
		return domain.Task{}, err
	}
	return created, nil
}

// UpdateTask applies a partial update to an existing task.
func (c *Client) UpdateTask(ctx context.Context, userID string, req TaskUpdateRequest) (domain.Task, error) {
	var updated domain.Task
	path := tasksPath(userID) + "/" + url.PathEscape(req.TaskID)
	if err := c.do(ctx, http.MethodPut, path, uuid.NewString(), req, &updated); err != nil {
		return domain.Task{}, err
	}
	return updated, nil
}

// CompleteTask toggles a task to the complete state.
func (c *Client) CompleteTask(ctx context.Context, userID, taskID string) (domain.Task, error) {
	var completed domain.Task
	path := tasksPath(userID) + "/" + url.PathEscape(taskID) + "/complete"
	if err := c.do(ctx, http.MethodPatch, path, uuid.NewString(), nil, &completed); err != nil {
		return domain.Task{}, err
	}
	return completed, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, userID, taskID string) error {
	path := tasksPath(userID) + "/" + url.PathEscape(taskID)
	return c.do(ctx, http.MethodDelete, path, uuid.NewString(), nil, nil)
}

func tasksPath(userID string) string {
	return "/api/" + url.PathEscape(userID) + "/tasks"
}
