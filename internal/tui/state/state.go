// Package state holds the TUI model shared by the logic and ui packages.
package state

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/hy4ri/todoify/internal/api"
	"github.com/hy4ri/todoify/internal/auth"
	"github.com/hy4ri/todoify/internal/config"
	"github.com/hy4ri/todoify/internal/session"
	"github.com/hy4ri/todoify/internal/tasks"
	"github.com/hy4ri/todoify/internal/tui/styles"
)

// Screen is the top-level route.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenDashboard
)

// View is the dashboard layout.
type View int

const (
	ViewGrid View = iota
	ViewCalendar
)

// ParseView maps a config value onto a View.
func ParseView(s string) View {
	if s == "calendar" {
		return ViewCalendar
	}
	return ViewGrid
}

// ConfirmKind says what a confirmation dialog will do on "yes".
type ConfirmKind int

const (
	ConfirmDelete ConfirmKind = iota
	ConfirmPermanentDelete
	ConfirmLogout
)

// Confirm is an open yes/no dialog.
type Confirm struct {
	Kind   ConfirmKind
	TaskID string
	Title  string
}

// Prompt returns the question shown in the dialog.
func (c *Confirm) Prompt() string {
	switch c.Kind {
	case ConfirmPermanentDelete:
		return "Permanently delete this task? This cannot be undone."
	case ConfirmLogout:
		return "Sign out?"
	default:
		return "Delete this task?"
	}
}

// State holds the application state.
// All fields are exported to allow access from logic and ui packages.
type State struct {
	// Dependencies
	Session *session.Provider
	Tasks   *tasks.Controller // nil until logged in
	Config  *config.Config
	OAuth   *auth.Flow // nil when no OAuth client is configured
	Logger  *slog.Logger

	// Routing
	Screen Screen
	View   View
	Filter tasks.Filter

	// Dashboard state
	Cursor        int
	CalendarMonth time.Time
	Now           func() time.Time

	// Overlays
	TaskForm      *TaskForm
	Confirm       *Confirm
	ShowDeleted   bool
	DeletedCursor int
	ShowHelp      bool

	// Login screen
	LoginForm *LoginForm

	// UI state
	Loading   bool
	StatusMsg string
	Width     int
	Height    int

	// Components
	Spinner  spinner.Model
	Keymap   KeymapData
	KeyState *KeyState
}

// New creates the initial state. The screen depends on whether the session
// was restored.
func New(provider *session.Provider, cfg *config.Config, flow *auth.Flow, logger *slog.Logger) *State {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	filter, err := tasks.ParseFilter(cfg.UI.DefaultFilter)
	if err != nil {
		filter = tasks.FilterAll
	}

	now := time.Now()
	st := &State{
		Session:       provider,
		Config:        cfg,
		OAuth:         flow,
		Logger:        logger,
		Screen:        ScreenLogin,
		View:          ParseView(cfg.UI.DefaultView),
		Filter:        filter,
		CalendarMonth: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local),
		Now:           time.Now,
		LoginForm:     NewLoginForm(),
		Spinner:       s,
		Keymap:        DefaultKeymap(),
		KeyState:      &KeyState{},
	}
	if provider.IsAuthenticated() {
		st.StartSession()
	}
	return st
}

// StartSession builds the task controller for the current user and shows
// the dashboard.
func (s *State) StartSession() {
	user := s.Session.User()
	if user == nil {
		return
	}
	s.Tasks = tasks.NewController(s.Session.Client(), user.ID, tasks.WithLogger(s.Logger))
	s.Screen = ScreenDashboard
	s.Cursor = 0
	s.LoginForm = NewLoginForm()
}

// EndSession drops the controller and shows the login screen.
func (s *State) EndSession() {
	s.Tasks = nil
	s.Screen = ScreenLogin
	s.TaskForm = nil
	s.Confirm = nil
	s.ShowDeleted = false
	s.ShowHelp = false
	s.Loading = false
	s.LoginForm = NewLoginForm()
}

// VisibleTasks returns the filtered active list in display order.
func (s *State) VisibleTasks() []api.Task {
	if s.Tasks == nil {
		return nil
	}
	return s.Filter.Apply(s.Tasks.Tasks())
}

// ClampCursor keeps the cursor inside the visible list.
func (s *State) ClampCursor() {
	n := len(s.VisibleTasks())
	if s.Cursor >= n {
		s.Cursor = n - 1
	}
	if s.Cursor < 0 {
		s.Cursor = 0
	}
	d := 0
	if s.Tasks != nil {
		d = len(s.Tasks.DeletedTasks())
	}
	if s.DeletedCursor >= d {
		s.DeletedCursor = d - 1
	}
	if s.DeletedCursor < 0 {
		s.DeletedCursor = 0
	}
}

// TabInfo holds tab metadata.
type TabInfo struct {
	Filter tasks.Filter
	Name   string
}

// GetTabDefinitions returns the filter tabs in order.
func GetTabDefinitions() []TabInfo {
	return []TabInfo{
		{tasks.FilterAll, "All Tasks"},
		{tasks.FilterActive, "Active"},
		{tasks.FilterCompleted, "Completed"},
	}
}
