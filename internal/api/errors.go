package api

import (
	"errors"
	"fmt"
)

// ErrorKind classifies how a request failed.
type ErrorKind int

const (
	// KindHTTP is a non-2xx response from the server.
	KindHTTP ErrorKind = iota
	// KindNetwork means no response was received.
	KindNetwork
	// KindDecode is a 2xx response whose body does not match the endpoint schema.
	KindDecode
	// KindUnauthenticated means the call needs a token and none is bound.
	KindUnauthenticated
)

func (k ErrorKind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

const (
	networkErrorMessage  = "Network error occurred"
	requestFailedMessage = "Request failed"
	notAuthenticated     = "Not authenticated"
)

// APIError represents a failed call to the Todoify API.
// StatusCode is 0 when no response was received.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("API error (%s, status %d): %s: %v", e.Kind, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("API error (%s, status %d): %s", e.Kind, e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error is a 404 Not Found error.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized returns true if the server rejected the credentials or no
// token was available to send.
func (e *APIError) IsUnauthorized() bool {
	return e.Kind == KindUnauthenticated || e.StatusCode == 401
}

// IsNotAuthenticated returns true if the call was short-circuited because no
// token was bound to the client.
func (e *APIError) IsNotAuthenticated() bool {
	return e.Kind == KindUnauthenticated
}

// IsForbidden returns true if the error is a 403 Forbidden error.
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == 403
}

// IsNetwork returns true if no response was received.
func (e *APIError) IsNetwork() bool {
	return e.Kind == KindNetwork
}

// IsServerError returns true if the error is a 5xx server error.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// AsAPIError finds the first *APIError in err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether err carries an authentication failure.
func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.IsUnauthorized()
}

func errNotAuthenticated() *APIError {
	return &APIError{
		Kind:       KindUnauthenticated,
		StatusCode: 401,
		Message:    notAuthenticated,
	}
}
