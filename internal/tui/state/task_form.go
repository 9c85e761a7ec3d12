package state

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hy4ri/todoify/internal/api"
)

// FormField constants for focus management
const (
	FormFieldTitle = iota
	FormFieldDescription
	FormFieldCompleted
	FormFieldSubmit
)

const formFieldCount = 4

// TaskForm represents the state of the task creation/editing form.
type TaskForm struct {
	Title       textinput.Model
	Description textarea.Model
	Completed   bool
	FocusIndex  int
	Err         string

	// Original is the task being edited, nil when creating.
	Original *api.Task
}

// NewTaskForm creates an empty form for a new task.
func NewTaskForm() *TaskForm {
	title := textinput.New()
	title.Placeholder = "Task title"
	title.Focus()
	title.CharLimit = 200
	title.Width = 50

	desc := textarea.New()
	desc.Placeholder = "Description (optional)"
	desc.ShowLineNumbers = false
	desc.CharLimit = 2000
	desc.SetWidth(50)
	desc.SetHeight(4)

	return &TaskForm{
		Title:       title,
		Description: desc,
	}
}

// NewEditTaskForm creates a form prefilled from t.
func NewEditTaskForm(t api.Task) *TaskForm {
	f := NewTaskForm()
	original := t
	f.Original = &original
	f.Title.SetValue(t.Title)
	f.Description.SetValue(t.Description)
	f.Completed = t.Completed
	return f
}

// IsEdit reports whether the form edits an existing task.
func (f *TaskForm) IsEdit() bool {
	return f.Original != nil
}

// Update routes a message to the focused field. It returns submit=true when
// the user asks to save.
func (f *TaskForm) Update(msg tea.Msg) (cmd tea.Cmd, submit bool) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab":
			f.NextField()
			return nil, false
		case "shift+tab":
			f.PrevField()
			return nil, false
		case "ctrl+s":
			return nil, true
		case "enter":
			switch f.FocusIndex {
			case FormFieldCompleted:
				f.Completed = !f.Completed
				return nil, false
			case FormFieldDescription:
				// newline
			default:
				return nil, true
			}
		case " ":
			if f.FocusIndex == FormFieldCompleted {
				f.Completed = !f.Completed
				return nil, false
			}
		}
	}

	switch f.FocusIndex {
	case FormFieldTitle:
		f.Title, cmd = f.Title.Update(msg)
	case FormFieldDescription:
		f.Description, cmd = f.Description.Update(msg)
	}
	return cmd, false
}

// NextField moves focus to the next field.
func (f *TaskForm) NextField() {
	f.Focus((f.FocusIndex + 1) % formFieldCount)
}

// PrevField moves focus to the previous field.
func (f *TaskForm) PrevField() {
	f.Focus((f.FocusIndex - 1 + formFieldCount) % formFieldCount)
}

// Focus moves focus to the field at index.
func (f *TaskForm) Focus(index int) {
	f.FocusIndex = index
	f.Title.Blur()
	f.Description.Blur()

	switch index {
	case FormFieldTitle:
		f.Title.Focus()
	case FormFieldDescription:
		f.Description.Focus()
	}
}

// IsValid checks if the form is valid.
func (f *TaskForm) IsValid() bool {
	return strings.TrimSpace(f.Title.Value()) != ""
}

// ToInput converts the form to a create payload.
func (f *TaskForm) ToInput() api.TaskInput {
	return api.TaskInput{
		Title:       strings.TrimSpace(f.Title.Value()),
		Description: strings.TrimSpace(f.Description.Value()),
		Completed:   f.Completed,
	}
}

// ToTask returns the edited task as a full record for an update.
func (f *TaskForm) ToTask() api.Task {
	var t api.Task
	if f.Original != nil {
		t = *f.Original
	}
	t.Title = strings.TrimSpace(f.Title.Value())
	t.Description = strings.TrimSpace(f.Description.Value())
	t.Completed = f.Completed
	return t
}

// SetWidth sets width of inputs
func (f *TaskForm) SetWidth(width int) {
	f.Title.Width = width
	f.Description.SetWidth(width)
}
