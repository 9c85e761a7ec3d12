package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultBaseURL is used when neither the environment nor the config set one.
	DefaultBaseURL = "http://localhost:8000/api"

	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// RequestIDHeader carries a per-request id for log correlation.
	RequestIDHeader = "X-Request-ID"
)

// Client is the Todoify API client. A Client is bound to at most one bearer
// token; use WithToken to derive a client for a session.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the API at baseURL with no token bound.
// An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken returns a copy of the client bound to token.
// An empty token yields a client whose authenticated calls fail.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.accessToken = token
	return &clone
}

// HasToken reports whether a bearer token is bound.
func (c *Client) HasToken() bool {
	return c.accessToken != ""
}

// BaseURL returns the API base address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetHTTPClient allows overriding the default HTTP client (useful for testing).
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// Response is the normalized outcome of a successful request.
// Data is nil for a 204 without a JSON body; other non-JSON bodies are
// wrapped as {"message": <raw text>}.
type Response struct {
	Status int
	Data   json.RawMessage
}

// Message returns the "message" field of the body, if any.
func (r *Response) Message() string {
	if r == nil || len(r.Data) == 0 {
		return ""
	}
	var m MessageResponse
	if err := json.Unmarshal(r.Data, &m); err != nil {
		return ""
	}
	return m.Message
}

// do performs an HTTP request, normalizes the response and decodes the body
// into result when one is given.
func (c *Client) do(ctx context.Context, method, path string, requireAuth bool, body, result interface{}) (*Response, error) {
	if requireAuth && c.accessToken == "" {
		return nil, errNotAuthenticated()
	}

	reqURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if requireAuth {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			"method", method, "path", path, "request_id", requestID, "error", err)
		return nil, &APIError{Kind: KindNetwork, Message: networkErrorMessage, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, StatusCode: resp.StatusCode, Message: networkErrorMessage, Err: err}
	}

	c.logger.Debug("request done",
		"method", method, "path", path, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(start))

	res, err := normalize(resp.StatusCode, respBody)
	if err != nil {
		return nil, err
	}

	if result != nil {
		if len(res.Data) == 0 {
			return nil, &APIError{Kind: KindDecode, StatusCode: res.Status, Message: "empty response body"}
		}
		if err := json.Unmarshal(res.Data, result); err != nil {
			return nil, &APIError{Kind: KindDecode, StatusCode: res.Status, Message: "unexpected response body", Err: err}
		}
	}

	return res, nil
}

// normalize maps a raw status and body onto a Response or an *APIError.
func normalize(status int, body []byte) (*Response, error) {
	var data json.RawMessage
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		data = json.RawMessage(trimmed)
	} else {
		if status == http.StatusNoContent {
			return &Response{Status: status}, nil
		}
		wrapped, err := json.Marshal(MessageResponse{Message: string(body)})
		if err != nil {
			return nil, fmt.Errorf("failed to wrap response body: %w", err)
		}
		data = wrapped
	}

	if status < 200 || status >= 300 {
		return nil, &APIError{
			Kind:       KindHTTP,
			StatusCode: status,
			Message:    serverMessage(data),
		}
	}

	return &Response{Status: status, Data: data}, nil
}

// serverMessage extracts the server's error text: "error" first, then the
// "detail" field FastAPI uses (a string, or a list of {"msg": ...}).
func serverMessage(data json.RawMessage) string {
	var body struct {
		Error  json.RawMessage `json:"error"`
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return requestFailedMessage
	}

	var s string
	if len(body.Error) > 0 && json.Unmarshal(body.Error, &s) == nil && s != "" {
		return s
	}
	if len(body.Detail) > 0 {
		if json.Unmarshal(body.Detail, &s) == nil && s != "" {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(body.Detail, &items) == nil && len(items) > 0 && items[0].Msg != "" {
			return items[0].Msg
		}
	}
	return requestFailedMessage
}
