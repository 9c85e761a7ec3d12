package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hy4ri/todoify/internal/api"
	"github.com/hy4ri/todoify/internal/tasks"
	"github.com/hy4ri/todoify/internal/tui/state"
)

// Handler applies messages to the shared state.
type Handler struct {
	*state.State
}

func NewHandler(s *state.State) *Handler {
	return &Handler{State: s}
}

// Init starts the spinner and, for a restored session, the first load.
func (h *Handler) Init() tea.Cmd {
	cmds := []tea.Cmd{h.Spinner.Tick, textinput.Blink}
	if h.Screen == state.ScreenDashboard {
		cmds = append(cmds, h.loadTasks())
	}
	return tea.Batch(cmds...)
}

func (h *Handler) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return tea.Quit
		}
		if h.Screen == state.ScreenLogin {
			return h.handleLoginKey(msg)
		}
		return h.handleDashboardKey(msg)

	case tea.WindowSizeMsg:
		h.Width = msg.Width
		h.Height = msg.Height
		if h.TaskForm != nil {
			h.TaskForm.SetWidth(formWidth(msg.Width))
		}
		return nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		h.Spinner, cmd = h.Spinner.Update(msg)
		return cmd

	case statusMsg:
		h.StatusMsg = msg.msg
		return nil

	case tasksLoadedMsg:
		h.Loading = false
		if msg.err != nil {
			return h.handleTaskErr(msg.err)
		}
		h.ClampCursor()
		return nil

	case taskChangedMsg:
		h.Loading = false
		if msg.err != nil {
			if h.TaskForm != nil && h.Tasks != nil {
				h.TaskForm.Err = h.Tasks.Err()
			}
			return h.handleTaskErr(msg.err)
		}
		h.TaskForm = nil
		h.StatusMsg = msg.status
		h.ClampCursor()
		return nil

	case oauthURLMsg:
		if h.Screen == state.ScreenLogin && h.LoginForm.Submitting {
			h.LoginForm.OAuthURL = msg.url
		}
		return nil

	case loggedInMsg:
		h.LoginForm.Submitting = false
		h.LoginForm.EndOAuth()
		if errors.Is(msg.err, context.Canceled) {
			h.LoginForm.Err = "Browser sign-in cancelled"
			return nil
		}
		if msg.err != nil {
			h.LoginForm.Err = errorText(msg.err)
			h.Logger.Info("login failed", "error", msg.err)
			return nil
		}
		h.StartSession()
		h.StatusMsg = fmt.Sprintf("Signed in as %s", msg.user.Email)
		return h.loadTasks()

	case loggedOutMsg:
		h.EndSession()
		if msg.err != nil {
			h.StatusMsg = msg.err.Error()
			return nil
		}
		h.StatusMsg = "Signed out"
		return nil
	}

	// Forward blink and other ticks to the focused inputs.
	return h.updateInputs(msg)
}

func (h *Handler) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case h.Screen == state.ScreenLogin && h.LoginForm != nil:
		cmd, _ = h.LoginForm.Update(msg)
	case h.TaskForm != nil:
		cmd, _ = h.TaskForm.Update(msg)
	}
	return cmd
}

// handleTaskErr routes authentication failures to the login screen. Other
// failures are already on the controller's banner.
func (h *Handler) handleTaskErr(err error) tea.Cmd {
	if tasks.IsUnauthenticated(err) {
		if logoutErr := h.Session.Logout(); logoutErr != nil {
			h.Logger.Warn("failed to clear session", "error", logoutErr)
		}
		h.EndSession()
		h.LoginForm.Err = "Session expired. Please sign in again."
		return nil
	}
	if h.Tasks == nil || h.Tasks.Err() == "" {
		h.StatusMsg = errorText(err)
	}
	return nil
}

func (h *Handler) handleLoginKey(msg tea.KeyMsg) tea.Cmd {
	form := h.LoginForm
	if form.Submitting {
		if msg.String() == "esc" {
			form.CancelOAuth()
		}
		return nil
	}

	switch msg.String() {
	case "esc":
		form.Err = ""
		return nil
	case "ctrl+o":
		if h.OAuth == nil {
			form.Err = "OAuth is not configured (see auth.oauth in the config file)"
			return nil
		}
		return h.oauthLogin()
	}

	cmd, submit := form.Update(msg)
	if !submit {
		return cmd
	}

	if problem := form.Validate(); problem != "" {
		form.Err = problem
		return nil
	}
	form.Err = ""
	form.Submitting = true
	email, password := form.Credentials()
	return h.login(email, password, form.Signup)
}

func (h *Handler) handleDashboardKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case h.Confirm != nil:
		return h.handleConfirmKey(msg)
	case h.TaskForm != nil:
		return h.handleFormKey(msg)
	case h.ShowDeleted:
		return h.handleDeletedKey(msg)
	case h.ShowHelp:
		switch msg.String() {
		case "esc", "?", "q":
			h.ShowHelp = false
		}
		return nil
	}

	action, _ := h.KeyState.HandleKey(msg, h.Keymap)
	return h.handleAction(action)
}

func (h *Handler) handleAction(action string) tea.Cmd {
	visible := h.VisibleTasks()

	switch action {
	case "quit":
		return tea.Quit
	case "help":
		h.ShowHelp = true
	case "back":
		h.StatusMsg = ""
		if h.Tasks != nil {
			h.Tasks.ClearErr()
		}
	case "refresh":
		h.StatusMsg = "Refreshing..."
		return h.loadTasks()
	case "logout":
		h.Confirm = &state.Confirm{Kind: state.ConfirmLogout}

	case "up", "down", "left", "right", "top", "bottom":
		h.moveCursor(action, len(visible))

	case "add":
		h.TaskForm = state.NewTaskForm()
		h.TaskForm.SetWidth(formWidth(h.Width))
		return textinput.Blink
	case "edit":
		if task, ok := h.selected(visible); ok {
			h.TaskForm = state.NewEditTaskForm(task)
			h.TaskForm.SetWidth(formWidth(h.Width))
			return textinput.Blink
		}
	case "complete":
		if task, ok := h.selected(visible); ok {
			return h.toggleTask(task.ID)
		}
	case "delete":
		if task, ok := h.selected(visible); ok {
			h.Confirm = &state.Confirm{Kind: state.ConfirmDelete, TaskID: task.ID, Title: task.Title}
		}
	case "copy":
		if task, ok := h.selected(visible); ok {
			return copyTask(task)
		}
	case "deleted":
		h.ShowDeleted = true
		h.DeletedCursor = 0

	case "filter_all":
		h.setFilter(tasks.FilterAll)
	case "filter_active":
		h.setFilter(tasks.FilterActive)
	case "filter_completed":
		h.setFilter(tasks.FilterCompleted)
	case "toggle_view":
		if h.View == state.ViewGrid {
			h.View = state.ViewCalendar
		} else {
			h.View = state.ViewGrid
		}
	case "prev_month":
		h.CalendarMonth = h.CalendarMonth.AddDate(0, -1, 0)
	case "next_month":
		h.CalendarMonth = h.CalendarMonth.AddDate(0, 1, 0)
	}
	return nil
}

func (h *Handler) setFilter(f tasks.Filter) {
	h.Filter = f
	h.Cursor = 0
}

func (h *Handler) selected(visible []api.Task) (api.Task, bool) {
	if h.View != state.ViewGrid || h.Cursor < 0 || h.Cursor >= len(visible) {
		return api.Task{}, false
	}
	return visible[h.Cursor], true
}

// moveCursor moves through the grid row by row; in the calendar h/l change month.
func (h *Handler) moveCursor(action string, n int) {
	if h.View == state.ViewCalendar {
		switch action {
		case "left":
			h.CalendarMonth = h.CalendarMonth.AddDate(0, -1, 0)
		case "right":
			h.CalendarMonth = h.CalendarMonth.AddDate(0, 1, 0)
		}
		return
	}
	if n == 0 {
		h.Cursor = 0
		return
	}

	cols := h.GridColumns()
	switch action {
	case "up":
		if h.Cursor-cols >= 0 {
			h.Cursor -= cols
		}
	case "down":
		if h.Cursor+cols < n {
			h.Cursor += cols
		} else if h.Cursor/cols < (n-1)/cols {
			// Partial last row.
			h.Cursor = n - 1
		}
	case "left":
		if h.Cursor > 0 {
			h.Cursor--
		}
	case "right":
		if h.Cursor < n-1 {
			h.Cursor++
		}
	case "top":
		h.Cursor = 0
	case "bottom":
		h.Cursor = n - 1
	}
}

func (h *Handler) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	c := h.Confirm
	switch msg.String() {
	case "y", "Y", "enter":
		h.Confirm = nil
		switch c.Kind {
		case state.ConfirmDelete:
			return h.deleteTask(c.TaskID)
		case state.ConfirmPermanentDelete:
			if err := h.Tasks.PermanentDelete(c.TaskID, confirmed); err != nil {
				h.StatusMsg = errorText(err)
				return nil
			}
			h.StatusMsg = "Task permanently deleted"
			h.ClampCursor()
		case state.ConfirmLogout:
			return h.logout()
		}
	case "n", "N", "esc", "q":
		h.Confirm = nil
		if c.Kind == state.ConfirmDelete {
			h.StatusMsg = "Delete cancelled"
		}
	}
	return nil
}

func (h *Handler) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	form := h.TaskForm
	if msg.String() == "esc" {
		h.TaskForm = nil
		return nil
	}
	if h.Loading {
		return nil
	}

	cmd, submit := form.Update(msg)
	if !submit {
		return cmd
	}

	if !form.IsValid() {
		form.Err = "Title is required"
		return nil
	}
	form.Err = ""
	if form.IsEdit() {
		return h.updateTask(form.ToTask())
	}
	return h.createTask(form.ToInput())
}

func (h *Handler) handleDeletedKey(msg tea.KeyMsg) tea.Cmd {
	deleted := h.Tasks.DeletedTasks()

	switch msg.String() {
	case "esc", "q", "D":
		h.ShowDeleted = false
	case "j", "down":
		if h.DeletedCursor < len(deleted)-1 {
			h.DeletedCursor++
		}
	case "k", "up":
		if h.DeletedCursor > 0 {
			h.DeletedCursor--
		}
	case "r", "enter":
		if h.DeletedCursor < len(deleted) {
			return h.restoreTask(deleted[h.DeletedCursor].ID)
		}
	case "X":
		if h.DeletedCursor < len(deleted) {
			d := deleted[h.DeletedCursor]
			h.Confirm = &state.Confirm{Kind: state.ConfirmPermanentDelete, TaskID: d.ID, Title: d.Title}
		}
	}
	return nil
}

func formWidth(width int) int {
	w := width - 20
	if w > 60 {
		w = 60
	}
	if w < 20 {
		w = 20
	}
	return w
}
