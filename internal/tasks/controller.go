// Package tasks keeps the user's task list in step with the backend and
// stages deleted tasks so they can be restored.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hy4ri/todoify/internal/api"
)

// Banner messages shown when a task operation fails.
const (
	MsgFetchFailed  = "Failed to fetch tasks"
	MsgCreateFailed = "Failed to create task"
	MsgUpdateFailed = "Failed to update task"
	MsgDeleteFailed = "Failed to delete task"
)

var (
	// ErrEmptyTitle is returned when a task is submitted without a title.
	ErrEmptyTitle = errors.New("title is required")
	// ErrDeleteDeclined is returned when the confirmation step says no.
	ErrDeleteDeclined = errors.New("delete declined")
	// ErrTaskNotFound is returned for an id that is not in the relevant list.
	ErrTaskNotFound = errors.New("task not found")
)

// Service is the part of the API client the controller needs.
type Service interface {
	GetTasks(ctx context.Context, userID string) ([]api.Task, error)
	CreateTask(ctx context.Context, userID string, input api.TaskInput) (*api.Task, error)
	UpdateTask(ctx context.Context, userID, taskID string, task api.Task) (*api.Task, error)
	DeleteTask(ctx context.Context, userID, taskID string) error
	UpdateTaskCompletion(ctx context.Context, userID, taskID string, completed bool) (*api.Task, error)
}

// ConfirmFunc asks the user whether to go ahead with a destructive action.
type ConfirmFunc func(task api.Task) bool

// DeletedTask is a client-side snapshot of a task removed from the backend.
type DeletedTask struct {
	api.Task
	DeletedAt time.Time `json:"deleted_at"`
}

// Counts summarises the lists for tab labels.
type Counts struct {
	All       int
	Active    int
	Completed int
	Deleted   int
}

// Controller owns the active and deleted lists of one user. Local state
// changes only after the backend has answered, and the lock is never held
// across a network call.
type Controller struct {
	svc    Service
	userID string
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	tasks   []api.Task
	deleted []DeletedTask
	errMsg  string
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the clock used for deletion timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController creates a controller for userID with empty lists.
func NewController(svc Service, userID string, opts ...Option) *Controller {
	c := &Controller{
		svc:    svc,
		userID: userID,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserID returns the owner of the lists.
func (c *Controller) UserID() string {
	return c.userID
}

// Load replaces the active list with the backend's. On failure the list is
// kept as it was and the fetch banner is set.
func (c *Controller) Load(ctx context.Context) error {
	c.ClearErr()

	tasks, err := c.svc.GetTasks(ctx, c.userID)
	if err != nil {
		c.fail(MsgFetchFailed, err)
		return err
	}

	c.mu.Lock()
	c.tasks = tasks
	c.mu.Unlock()
	c.logger.Debug("tasks loaded", "count", len(tasks))
	return nil
}

// Create submits a new task and appends the backend's record.
func (c *Controller) Create(ctx context.Context, input api.TaskInput) (api.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return api.Task{}, ErrEmptyTitle
	}

	created, err := c.svc.CreateTask(ctx, c.userID, input)
	if err != nil {
		c.fail(MsgCreateFailed, err)
		return api.Task{}, err
	}

	c.mu.Lock()
	c.tasks = append(c.tasks, *created)
	c.mu.Unlock()
	c.logger.Info("task created", "task_id", created.ID)
	return *created, nil
}

// Update submits the full record and replaces the entry with the same id.
func (c *Controller) Update(ctx context.Context, task api.Task) (api.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return api.Task{}, ErrEmptyTitle
	}

	updated, err := c.svc.UpdateTask(ctx, c.userID, task.ID, task)
	if err != nil {
		c.fail(MsgUpdateFailed, err)
		return api.Task{}, err
	}

	c.replace(*updated)
	c.logger.Info("task updated", "task_id", updated.ID)
	return *updated, nil
}

// ToggleComplete flips the completion flag of the task with id.
func (c *Controller) ToggleComplete(ctx context.Context, id string) (api.Task, error) {
	task, ok := c.Task(id)
	if !ok {
		return api.Task{}, ErrTaskNotFound
	}
	return c.SetCompleted(ctx, id, !task.Completed)
}

// SetCompleted submits only the completion flag and stores the server's record.
func (c *Controller) SetCompleted(ctx context.Context, id string, completed bool) (api.Task, error) {
	updated, err := c.svc.UpdateTaskCompletion(ctx, c.userID, id, completed)
	if err != nil {
		c.fail(MsgUpdateFailed, err)
		return api.Task{}, err
	}

	c.replace(*updated)
	c.logger.Info("task completion set", "task_id", id, "completed", updated.Completed)
	return *updated, nil
}

// Delete asks confirm first; a refusal changes nothing. Once the backend
// delete succeeds the task leaves the active list and a snapshot is staged
// in the deleted list.
func (c *Controller) Delete(ctx context.Context, id string, confirm ConfirmFunc) error {
	task, ok := c.Task(id)
	if !ok {
		return ErrTaskNotFound
	}
	if confirm != nil && !confirm(task) {
		return ErrDeleteDeclined
	}

	if err := c.svc.DeleteTask(ctx, c.userID, id); err != nil {
		c.fail(MsgDeleteFailed, err)
		return err
	}

	c.mu.Lock()
	c.tasks = removeTask(c.tasks, id)
	c.deleted = append(c.deleted, DeletedTask{Task: task, DeletedAt: c.now().UTC()})
	c.mu.Unlock()
	c.logger.Info("task deleted", "task_id", id)
	return nil
}

// Restore re-creates a deleted task from its content. The new task gets a
// new id; the original id and timestamps are not recovered. The deleted
// entry is dropped only if the create succeeds.
func (c *Controller) Restore(ctx context.Context, id string) (api.Task, error) {
	entry, ok := c.deletedTask(id)
	if !ok {
		return api.Task{}, ErrTaskNotFound
	}

	created, err := c.svc.CreateTask(ctx, c.userID, entry.Input())
	if err != nil {
		c.fail(MsgCreateFailed, err)
		return api.Task{}, err
	}

	c.mu.Lock()
	c.tasks = append(c.tasks, *created)
	c.deleted = removeDeleted(c.deleted, id)
	c.mu.Unlock()
	c.logger.Info("task restored", "old_id", id, "task_id", created.ID)
	return *created, nil
}

// PermanentDelete drops a staged entry. The backend copy is already gone so
// nothing is sent.
func (c *Controller) PermanentDelete(id string, confirm ConfirmFunc) error {
	entry, ok := c.deletedTask(id)
	if !ok {
		return ErrTaskNotFound
	}
	if confirm != nil && !confirm(entry.Task) {
		return ErrDeleteDeclined
	}

	c.mu.Lock()
	c.deleted = removeDeleted(c.deleted, id)
	c.mu.Unlock()
	return nil
}

// Tasks returns a copy of the active list.
func (c *Controller) Tasks() []api.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]api.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// DeletedTasks returns a copy of the deleted list.
func (c *Controller) DeletedTasks() []DeletedTask {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]DeletedTask, len(c.deleted))
	copy(out, c.deleted)
	return out
}

// Task looks up an active task by id.
func (c *Controller) Task(id string) (api.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return api.Task{}, false
}

// Err returns the current banner message, or "".
func (c *Controller) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errMsg
}

// ClearErr dismisses the banner.
func (c *Controller) ClearErr() {
	c.mu.Lock()
	c.errMsg = ""
	c.mu.Unlock()
}

// Counts returns the list sizes.
func (c *Controller) Counts() Counts {
	c.mu.RLock()
	defer c.mu.RUnlock()
	counts := Counts{All: len(c.tasks), Deleted: len(c.deleted)}
	for _, t := range c.tasks {
		if t.Completed {
			counts.Completed++
		} else {
			counts.Active++
		}
	}
	return counts
}

func (c *Controller) deletedTask(id string) (DeletedTask, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.deleted {
		if d.ID == id {
			return d, true
		}
	}
	return DeletedTask{}, false
}

func (c *Controller) replace(task api.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.tasks {
		if c.tasks[i].ID == task.ID {
			c.tasks[i] = task
			return
		}
	}
}

func (c *Controller) fail(msg string, err error) {
	c.mu.Lock()
	c.errMsg = msg
	c.mu.Unlock()
	c.logger.Warn(strings.ToLower(msg), "user_id", c.userID, "error", err)
}

// IsUnauthenticated reports whether err means the session is missing or
// rejected and the user has to log in again.
func IsUnauthenticated(err error) bool {
	return api.IsUnauthorized(err)
}

func removeTask(tasks []api.Task, id string) []api.Task {
	out := make([]api.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func removeDeleted(deleted []DeletedTask, id string) []DeletedTask {
	out := make([]DeletedTask, 0, len(deleted))
	for _, d := range deleted {
		if d.ID != id {
			out = append(out, d)
		}
	}
	return out
}

// Describe renders a one-line summary of a task for logs and the clipboard.
func Describe(t api.Task) string {
	status := " "
	if t.Completed {
		status = "x"
	}
	if t.Description == "" {
		return fmt.Sprintf("[%s] %s", status, t.Title)
	}
	return fmt.Sprintf("[%s] %s - %s", status, t.Title, t.Description)
}
