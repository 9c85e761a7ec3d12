package state

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Login form fields
const (
	LoginFieldEmail = iota
	LoginFieldPassword
)

// LoginForm is the email/password form on the login screen.
type LoginForm struct {
	Email      textinput.Model
	Password   textinput.Model
	FocusIndex int
	Signup     bool
	Err        string
	Submitting bool

	// OAuthURL is the authorization page of a running browser login.
	OAuthURL    string
	cancelOAuth context.CancelFunc
}

// NewLoginForm creates an empty login form with the email field focused.
func NewLoginForm() *LoginForm {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Width = 40
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128
	password.Width = 40

	return &LoginForm{
		Email:    email,
		Password: password,
	}
}

// Update routes a message to the focused field. It returns submit=true on enter.
func (f *LoginForm) Update(msg tea.Msg) (cmd tea.Cmd, submit bool) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "shift+tab", "up", "down":
			f.toggleFocus()
			return nil, false
		case "ctrl+s":
			f.Signup = !f.Signup
			f.Err = ""
			return nil, false
		case "enter":
			if f.FocusIndex == LoginFieldEmail {
				f.toggleFocus()
				return nil, false
			}
			return nil, true
		}
	}

	if f.FocusIndex == LoginFieldEmail {
		f.Email, cmd = f.Email.Update(msg)
	} else {
		f.Password, cmd = f.Password.Update(msg)
	}
	return cmd, false
}

func (f *LoginForm) toggleFocus() {
	if f.FocusIndex == LoginFieldEmail {
		f.FocusIndex = LoginFieldPassword
		f.Email.Blur()
		f.Password.Focus()
	} else {
		f.FocusIndex = LoginFieldEmail
		f.Password.Blur()
		f.Email.Focus()
	}
}

// Credentials returns the trimmed email and the raw password.
func (f *LoginForm) Credentials() (email, password string) {
	return strings.TrimSpace(f.Email.Value()), f.Password.Value()
}

// Validate returns a user-facing message for missing fields, or "".
func (f *LoginForm) Validate() string {
	email, password := f.Credentials()
	if email == "" || password == "" {
		return "Email and password required"
	}
	if !strings.Contains(email, "@") {
		return "Enter a valid email address"
	}
	return ""
}

// BeginOAuth marks a browser login as running; cancel aborts it.
func (f *LoginForm) BeginOAuth(cancel context.CancelFunc) {
	f.Err = ""
	f.OAuthURL = ""
	f.Submitting = true
	f.cancelOAuth = cancel
}

// CancelOAuth aborts a running browser login and reports whether one was
// running. The form stays submitting until the login result arrives.
func (f *LoginForm) CancelOAuth() bool {
	if f.cancelOAuth == nil {
		return false
	}
	f.cancelOAuth()
	f.cancelOAuth = nil
	return true
}

// EndOAuth clears the browser login state once its result has arrived.
func (f *LoginForm) EndOAuth() {
	f.OAuthURL = ""
	f.cancelOAuth = nil
}
