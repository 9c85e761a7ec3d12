package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hy4ri/todoify/internal/tui/state"
	"github.com/hy4ri/todoify/internal/tui/styles"
)

// renderLogin renders the login / signup screen.
func (r *Renderer) renderLogin() string {
	var b strings.Builder
	f := r.LoginForm

	title := "Sign in to Todoify"
	if f.Signup {
		title = "Create a Todoify account"
	}
	b.WriteString(styles.Title.Render(title) + "\n\n")

	emailStyle, passwordStyle := styles.Input, styles.Input
	if f.FocusIndex == state.LoginFieldEmail {
		emailStyle = styles.InputFocused
	} else {
		passwordStyle = styles.InputFocused
	}

	b.WriteString(styles.InputLabel.Render("Email") + "\n")
	b.WriteString(emailStyle.Render(f.Email.View()) + "\n")
	b.WriteString(styles.InputLabel.Render("Password") + "\n")
	b.WriteString(passwordStyle.Render(f.Password.View()) + "\n")

	switch {
	case f.Submitting && f.OAuthURL != "":
		b.WriteString("\n" + r.Spinner.View() + " Waiting for browser sign-in...\n")
		b.WriteString(styles.HelpDesc.Render("If no browser opened, visit:") + "\n")
		b.WriteString(f.OAuthURL + "\n")
	case f.Submitting:
		b.WriteString("\n" + r.Spinner.View() + " Signing in...\n")
	case f.Err != "":
		b.WriteString("\n" + styles.FormError.Render(f.Err) + "\n")
	}

	b.WriteString("\n")
	mode := "ctrl+s: create account"
	if f.Signup {
		mode = "ctrl+s: sign in instead"
	}
	if f.OAuthURL != "" {
		b.WriteString(styles.HelpDesc.Render("esc: cancel | ctrl+c: quit"))
		return lipgloss.Place(r.Width, r.Height, lipgloss.Center, lipgloss.Center, styles.Dialog.Render(b.String()))
	}
	hints := []string{"enter: submit", "tab: next field", mode}
	if r.OAuth != nil {
		hints = append(hints, "ctrl+o: sign in with browser")
	}
	hints = append(hints, "ctrl+c: quit")
	b.WriteString(styles.HelpDesc.Render(strings.Join(hints, " | ")))

	return lipgloss.Place(r.Width, r.Height, lipgloss.Center, lipgloss.Center, styles.Dialog.Render(b.String()))
}

// renderTaskForm renders the add/edit task form.
func (r *Renderer) renderTaskForm() string {
	var b strings.Builder
	f := r.TaskForm

	title := "Add Task"
	if f.IsEdit() {
		title = "Edit Task"
	}
	b.WriteString(styles.DialogTitle.Render(title) + "\n\n")

	b.WriteString(styles.InputLabel.Render("Title") + "\n")
	b.WriteString(fieldStyle(f.FocusIndex == state.FormFieldTitle).Render(f.Title.View()) + "\n")

	b.WriteString(styles.InputLabel.Render("Description") + "\n")
	b.WriteString(fieldStyle(f.FocusIndex == state.FormFieldDescription).Render(f.Description.View()) + "\n")

	checkbox := styles.CheckboxUnchecked
	if f.Completed {
		checkbox = styles.CheckboxChecked
	}
	completed := checkbox + " Completed"
	if f.FocusIndex == state.FormFieldCompleted {
		completed = styles.HelpKey.Render(completed)
	}
	b.WriteString(completed + "\n\n")

	submit := "[ Save ]"
	if f.FocusIndex == state.FormFieldSubmit {
		submit = styles.TabActive.Render(submit)
	}
	b.WriteString(submit + "\n")

	if r.Loading {
		b.WriteString("\n" + r.Spinner.View() + " Saving...\n")
	} else if f.Err != "" {
		b.WriteString("\n" + styles.FormError.Render(f.Err) + "\n")
	}

	b.WriteString("\n" + styles.HelpDesc.Render("ctrl+s: save | tab: next field | esc: cancel"))

	return styles.Dialog.Render(b.String())
}

func fieldStyle(focused bool) lipgloss.Style {
	if focused {
		return styles.InputFocused
	}
	return styles.Input
}

// renderConfirm renders the yes/no dialog.
func (r *Renderer) renderConfirm() string {
	c := r.Confirm
	style := confirmStyle(c.Kind)

	var b strings.Builder
	b.WriteString(styles.DialogTitle.Render(c.Prompt()) + "\n")
	if c.Title != "" {
		b.WriteString("\n" + styles.CardTitle.Render(truncateString(c.Title, 50)) + "\n")
	}
	b.WriteString("\n" + styles.HelpDesc.Render("y: yes | n: no"))
	return style.Render(b.String())
}

// confirmStyle picks the dialog border: red when data is lost, amber otherwise.
func confirmStyle(kind state.ConfirmKind) lipgloss.Style {
	if kind == state.ConfirmLogout {
		return styles.DialogWarning
	}
	return styles.DialogDanger
}

// renderDeleted renders the session's deleted tasks.
func (r *Renderer) renderDeleted() string {
	var b strings.Builder
	deleted := r.Tasks.DeletedTasks()

	b.WriteString(styles.DialogTitle.Render(fmt.Sprintf("Deleted Tasks (%d)", len(deleted))) + "\n\n")

	if len(deleted) == 0 {
		b.WriteString(styles.Faint.Render("Nothing deleted this session.") + "\n")
	}

	width := r.Width - 20
	if width > 60 {
		width = 60
	}
	if width < 20 {
		width = 20
	}

	for i, d := range deleted {
		line := fmt.Sprintf("%s  %s", truncateString(d.Title, width-10), styles.CardMeta.Render(d.DeletedAt.Local().Format("15:04")))
		if i == r.DeletedCursor {
			b.WriteString(styles.ListItemSelected.Render(line) + "\n")
		} else {
			b.WriteString(styles.ListItem.Render(line) + "\n")
		}
	}

	b.WriteString("\n" + styles.HelpDesc.Render("r: restore | X: delete permanently | esc: close"))
	return styles.Dialog.Width(width + 6).Render(b.String())
}
