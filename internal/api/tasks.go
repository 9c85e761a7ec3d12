package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func tasksPath(userID string) string {
	return "/users/" + url.PathEscape(userID) + "/tasks"
}

func taskPath(userID, taskID string) string {
	return tasksPath(userID) + "/" + url.PathEscape(taskID)
}

// GetTasks returns all tasks of the user. There is no pagination.
func (c *Client) GetTasks(ctx context.Context, userID string) ([]Task, error) {
	tasks := make([]Task, 0)
	if _, err := c.do(ctx, http.MethodGet, tasksPath(userID), true, nil, &tasks); err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}
	for _, t := range tasks {
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("failed to get tasks: %w",
				&APIError{Kind: KindDecode, StatusCode: http.StatusOK, Message: "invalid task in list", Err: err})
		}
	}
	return tasks, nil
}

// GetTask returns a single task by ID.
func (c *Client) GetTask(ctx context.Context, userID, taskID string) (*Task, error) {
	var task Task
	if _, err := c.do(ctx, http.MethodGet, taskPath(userID, taskID), true, nil, &task); err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", taskID, err)
	}
	if err := task.validate(); err != nil {
		return nil, decodeFailure("get task "+taskID, err)
	}
	return &task, nil
}

// CreateTask creates a new task. The returned task carries the server-assigned ID.
func (c *Client) CreateTask(ctx context.Context, userID string, input TaskInput) (*Task, error) {
	var task Task
	if _, err := c.do(ctx, http.MethodPost, tasksPath(userID), true, input, &task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	if err := task.validate(); err != nil {
		return nil, decodeFailure("create task", err)
	}
	return &task, nil
}

// UpdateTask replaces a task with the given full record.
func (c *Client) UpdateTask(ctx context.Context, userID, taskID string, task Task) (*Task, error) {
	var updated Task
	if _, err := c.do(ctx, http.MethodPut, taskPath(userID, taskID), true, task, &updated); err != nil {
		return nil, fmt.Errorf("failed to update task %s: %w", taskID, err)
	}
	if err := updated.validate(); err != nil {
		return nil, decodeFailure("update task "+taskID, err)
	}
	return &updated, nil
}

// DeleteTask deletes a task. The backend treats this as permanent.
func (c *Client) DeleteTask(ctx context.Context, userID, taskID string) error {
	if _, err := c.do(ctx, http.MethodDelete, taskPath(userID, taskID), true, nil, nil); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", taskID, err)
	}
	return nil
}

// UpdateTaskCompletion sets only the completion flag and returns the server's record.
func (c *Client) UpdateTaskCompletion(ctx context.Context, userID, taskID string, completed bool) (*Task, error) {
	var task Task
	if _, err := c.do(ctx, http.MethodPatch, taskPath(userID, taskID)+"/complete", true, completionRequest{Completed: completed}, &task); err != nil {
		return nil, fmt.Errorf("failed to update completion of task %s: %w", taskID, err)
	}
	if err := task.validate(); err != nil {
		return nil, decodeFailure("update completion of task "+taskID, err)
	}
	return &task, nil
}

func decodeFailure(op string, err error) error {
	return fmt.Errorf("failed to %s: %w", op,
		&APIError{Kind: KindDecode, StatusCode: http.StatusOK, Message: "invalid task", Err: err})
}
