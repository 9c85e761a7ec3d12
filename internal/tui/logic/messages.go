package logic

import "github.com/hy4ri/todoify/internal/session"

// Message types
type statusMsg struct{ msg string }

// oauthURLMsg carries the authorization page of a running browser login.
type oauthURLMsg struct{ url string }

// tasksLoadedMsg reports the end of a Load; the controller already holds the result.
type tasksLoadedMsg struct{ err error }

// taskChangedMsg reports the end of a mutation.
type taskChangedMsg struct {
	status string
	err    error
}

type loggedInMsg struct {
	user *session.User
	err  error
}

type loggedOutMsg struct{ err error }
