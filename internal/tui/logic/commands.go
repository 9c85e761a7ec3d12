package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hy4ri/todoify/internal/api"
	"github.com/hy4ri/todoify/internal/auth"
	"github.com/hy4ri/todoify/internal/tasks"
)

// requestTimeout bounds every command started from the UI.
const requestTimeout = api.DefaultTimeout

// clipboardWrite is swapped in tests.
var clipboardWrite = clipboard.WriteAll

func confirmed(api.Task) bool { return true }

func (h *Handler) loadTasks() tea.Cmd {
	ctrl := h.Tasks
	if ctrl == nil {
		return nil
	}
	h.Loading = true
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return tasksLoadedMsg{err: ctrl.Load(ctx)}
	}
}

func (h *Handler) createTask(input api.TaskInput) tea.Cmd {
	ctrl := h.Tasks
	h.Loading = true
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if _, err := ctrl.Create(ctx, input); err != nil {
			return taskChangedMsg{err: err}
		}
		return taskChangedMsg{status: "Task created"}
	}
}

func (h *Handler) updateTask(task api.Task) tea.Cmd {
	ctrl := h.Tasks
	h.Loading = true
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if _, err := ctrl.Update(ctx, task); err != nil {
			return taskChangedMsg{err: err}
		}
		return taskChangedMsg{status: "Task updated"}
	}
}

func (h *Handler) toggleTask(id string) tea.Cmd {
	ctrl := h.Tasks
	h.Loading = true
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		task, err := ctrl.ToggleComplete(ctx, id)
		if err != nil {
			return taskChangedMsg{err: err}
		}
		if task.Completed {
			return taskChangedMsg{status: "Task completed"}
		}
		return taskChangedMsg{status: "Task reopened"}
	}
}

// deleteTask runs after the user has said yes in the dialog.
func (h *Handler) deleteTask(id string) tea.Cmd {
	ctrl := h.Tasks
	h.Loading = true
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := ctrl.Delete(ctx, id, confirmed); err != nil {
			return taskChangedMsg{err: err}
		}
		return taskChangedMsg{status: "Task deleted (D to restore)"}
	}
}

func (h *Handler) restoreTask(id string) tea.Cmd {
	ctrl := h.Tasks
	h.Loading = true
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if _, err := ctrl.Restore(ctx, id); err != nil {
			return taskChangedMsg{err: err}
		}
		return taskChangedMsg{status: "Task restored"}
	}
}

func (h *Handler) login(email, password string, signup bool) tea.Cmd {
	provider := h.Session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if signup {
			user, err := provider.Signup(ctx, email, password)
			return loggedInMsg{user: user, err: err}
		}
		user, err := provider.Login(ctx, email, password)
		return loggedInMsg{user: user, err: err}
	}
}

// oauthLogin runs the browser flow until it returns or esc cancels it. The
// authorization URL is shown on the login form in case no browser opens.
func (h *Handler) oauthLogin() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	h.LoginForm.BeginOAuth(cancel)

	urls := make(chan string, 1)
	flow := h.OAuth.With(auth.WithURLHandler(func(u string) {
		select {
		case urls <- u:
		default:
		}
	}))
	provider := h.Session

	run := func() tea.Msg {
		defer cancel()
		token, err := flow.Run(ctx)
		if err != nil {
			return loggedInMsg{err: err}
		}
		user, err := provider.LoginWithToken(token.AccessToken, token.Email)
		return loggedInMsg{user: user, err: err}
	}
	waitURL := func() tea.Msg {
		select {
		case u := <-urls:
			return oauthURLMsg{url: u}
		case <-ctx.Done():
			return nil
		}
	}
	return tea.Batch(run, waitURL)
}

func (h *Handler) logout() tea.Cmd {
	provider := h.Session
	return func() tea.Msg {
		return loggedOutMsg{err: provider.Logout()}
	}
}

// copyTask copies the task's title and description to the clipboard.
func copyTask(t api.Task) tea.Cmd {
	return func() tea.Msg {
		content := t.Title
		if t.Description != "" {
			content += "\n" + t.Description
		}
		if err := clipboardWrite(content); err != nil {
			return statusMsg{msg: "Failed to copy: " + err.Error()}
		}
		return statusMsg{msg: fmt.Sprintf("Copied: %s", t.Title)}
	}
}

// errorText returns the message shown for a failed auth call.
func errorText(err error) string {
	if apiErr, ok := api.AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, tasks.ErrEmptyTitle) {
		return "Title is required"
	}
	return err.Error()
}
