package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/hy4ri/todoify/internal/api"
	"github.com/hy4ri/todoify/internal/config"
	"github.com/hy4ri/todoify/internal/session"
	"github.com/hy4ri/todoify/internal/tasks"
	"github.com/hy4ri/todoify/internal/tui/state"
	"github.com/hy4ri/todoify/internal/tui/styles"
)

// staticService serves a fixed list, or fails every call with err.
type staticService struct {
	tasks []api.Task
	err   error
}

func (s *staticService) GetTasks(context.Context, string) ([]api.Task, error) {
	return s.tasks, s.err
}

func (s *staticService) CreateTask(context.Context, string, api.TaskInput) (*api.Task, error) {
	return nil, errors.New("not implemented")
}

func (s *staticService) UpdateTask(context.Context, string, string, api.Task) (*api.Task, error) {
	return nil, errors.New("not implemented")
}

func (s *staticService) DeleteTask(context.Context, string, string) error {
	return errors.New("not implemented")
}

func (s *staticService) UpdateTaskCompletion(context.Context, string, string, bool) (*api.Task, error) {
	return nil, errors.New("not implemented")
}

type memStore struct {
	token string
	data  []byte
}

func (s *memStore) Token() (string, error)    { return s.token, nil }
func (s *memStore) UserData() ([]byte, error) { return s.data, nil }
func (s *memStore) Save(token string, data []byte) error {
	s.token, s.data = token, data
	return nil
}
func (s *memStore) Clear() error {
	s.token, s.data = "", nil
	return nil
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newAnonymousRenderer() *Renderer {
	provider := session.NewProvider(api.NewClient("http://127.0.0.1:1"), &memStore{})
	st := state.New(provider, config.DefaultConfig(), nil, discard)
	st.Width, st.Height = 120, 40
	return NewRenderer(st)
}

// newDashboardRenderer returns a signed-in renderer whose list was loaded
// from svc.
func newDashboardRenderer(t *testing.T, svc *staticService) *Renderer {
	t.Helper()
	provider := session.NewProvider(api.NewClient("http://127.0.0.1:1"), &memStore{})
	if _, err := provider.LoginWithToken("tok", "me@example.com"); err != nil {
		t.Fatalf("LoginWithToken: %v", err)
	}

	st := state.New(provider, config.DefaultConfig(), nil, discard)
	st.Width, st.Height = 120, 40
	st.Tasks = tasks.NewController(svc, "u1", tasks.WithLogger(discard))
	_ = st.Tasks.Load(context.Background())
	return NewRenderer(st)
}

func TestViewBeforeFirstResize(t *testing.T) {
	r := newAnonymousRenderer()
	r.Width = 0
	if got := r.View(); got != "Loading..." {
		t.Errorf("expected placeholder, got %q", got)
	}
}

func TestLoginScreen(t *testing.T) {
	r := newAnonymousRenderer()

	out := r.View()
	if !strings.Contains(out, "Sign in to Todoify") {
		t.Error("expected the sign-in title")
	}
	if strings.Contains(out, "ctrl+o") {
		t.Error("browser sign-in should only be offered when configured")
	}

	r.LoginForm.Signup = true
	r.LoginForm.Err = "Email and password required"
	out = r.View()
	if !strings.Contains(out, "Create a Todoify account") {
		t.Error("expected the signup title")
	}
	if !strings.Contains(out, "Email and password required") {
		t.Error("expected the form error")
	}
}

func TestLoginScreenShowsAuthorizationURL(t *testing.T) {
	r := newAnonymousRenderer()
	r.LoginForm.Submitting = true
	r.LoginForm.OAuthURL = "https://todo.example.com/oauth/authorize?client_id=cid"

	out := r.View()
	if !strings.Contains(out, r.LoginForm.OAuthURL) {
		t.Error("expected the authorization URL")
	}
	if !strings.Contains(out, "esc: cancel") {
		t.Error("expected the cancel hint")
	}
}

func TestConfirmStyle(t *testing.T) {
	tests := []struct {
		kind state.ConfirmKind
		want lipgloss.TerminalColor
	}{
		{state.ConfirmDelete, styles.ErrorColor},
		{state.ConfirmPermanentDelete, styles.ErrorColor},
		{state.ConfirmLogout, styles.WarningColor},
	}
	for _, tt := range tests {
		if got := confirmStyle(tt.kind).GetBorderTopForeground(); got != tt.want {
			t.Errorf("kind %d: border %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestGridEmptyStates(t *testing.T) {
	r := newDashboardRenderer(t, &staticService{})

	tests := []struct {
		filter tasks.Filter
		want   string
	}{
		{tasks.FilterAll, emptyAll},
		{tasks.FilterActive, emptyActive},
		{tasks.FilterCompleted, emptyCompleted},
	}
	for _, tt := range tests {
		r.Filter = tt.filter
		if out := r.View(); !strings.Contains(out, tt.want) {
			t.Errorf("filter %s: expected %q", tt.filter, tt.want)
		}
	}
}

func TestGridCardsAndCounts(t *testing.T) {
	r := newDashboardRenderer(t, &staticService{tasks: []api.Task{
		{ID: "1", Title: "Buy milk", Description: "two litres"},
		{ID: "2", Title: "File taxes", Completed: true},
	}})

	out := r.View()
	for _, want := range []string{"Buy milk", "two litres", "File taxes", "All Tasks (2)", "Active (1)", "Completed (1)", "Deleted (0)", "me@example.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in the dashboard", want)
		}
	}

	r.Filter = tasks.FilterActive
	if out := r.View(); strings.Contains(out, "File taxes") {
		t.Error("active filter should hide completed cards")
	}
}

func TestLongTitleIsTruncated(t *testing.T) {
	long := strings.Repeat("very long title ", 10)
	r := newDashboardRenderer(t, &staticService{tasks: []api.Task{{ID: "1", Title: long}}})

	out := r.View()
	if strings.Contains(out, long) {
		t.Error("title should be truncated to the card width")
	}
	if !strings.Contains(out, "…") {
		t.Error("expected an ellipsis")
	}
}

func TestErrorBanner(t *testing.T) {
	r := newDashboardRenderer(t, &staticService{err: errors.New("connection refused")})

	if out := r.View(); !strings.Contains(out, tasks.MsgFetchFailed) {
		t.Errorf("expected banner %q", tasks.MsgFetchFailed)
	}

	r.Tasks.ClearErr()
	if out := r.View(); strings.Contains(out, tasks.MsgFetchFailed) {
		t.Error("banner should disappear once cleared")
	}
}

func TestCalendarOverflow(t *testing.T) {
	day := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	var list []api.Task
	for i := 1; i <= 5; i++ {
		list = append(list, api.Task{ID: fmt.Sprint(i), Title: fmt.Sprintf("T%d", i), CreatedAt: api.NewTimestamp(day)})
	}
	r := newDashboardRenderer(t, &staticService{tasks: list})
	r.State.View = state.ViewCalendar
	r.CalendarMonth = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	r.Now = func() time.Time { return day }

	out := r.renderCalendar(60)
	for _, want := range []string{"JUNE 2024", "Sun", "Sat", "T1", "T3", "+2 more"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in the calendar", want)
		}
	}
	if strings.Contains(out, "T4") {
		t.Error("only three tasks fit in a cell")
	}
}

func TestOverlays(t *testing.T) {
	r := newDashboardRenderer(t, &staticService{tasks: []api.Task{{ID: "1", Title: "Buy milk"}}})

	r.Confirm = &state.Confirm{Kind: state.ConfirmDelete, TaskID: "1", Title: "Buy milk"}
	if out := r.View(); !strings.Contains(out, "Delete this task?") {
		t.Error("expected the delete prompt")
	}
	r.Confirm = nil

	r.TaskForm = state.NewEditTaskForm(api.Task{ID: "1", Title: "Buy milk"})
	if out := r.View(); !strings.Contains(out, "Edit Task") {
		t.Error("expected the edit form")
	}
	r.TaskForm = nil

	r.ShowDeleted = true
	if out := r.View(); !strings.Contains(out, "Deleted Tasks (0)") {
		t.Error("expected the deleted tasks dialog")
	}
	r.ShowDeleted = false

	r.ShowHelp = true
	out := r.View()
	if !strings.Contains(out, "Keyboard Shortcuts") || !strings.Contains(out, "Deleted Tasks") {
		t.Error("expected the help overlay")
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 6, "hello…"},
		{"日本語テキスト", 7, "日本語…"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
