package api

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     bool
		wantMessage string
		wantData    string
	}{
		{name: "204 without body", status: 204, body: "", wantData: ""},
		{name: "json success", status: 200, body: `{"id":"1"}`, wantData: `{"id":"1"}`},
		{name: "text success wrapped", status: 200, body: "ok", wantData: `{"message":"ok"}`},
		{name: "error field", status: 400, body: `{"error":"Invalid password"}`, wantErr: true, wantMessage: "Invalid password"},
		{name: "detail field", status: 401, body: `{"detail":"Invalid credentials"}`, wantErr: true, wantMessage: "Invalid credentials"},
		{name: "validation detail list", status: 422, body: `{"detail":[{"msg":"field required"}]}`, wantErr: true, wantMessage: "field required"},
		{name: "error without message", status: 500, body: `{}`, wantErr: true, wantMessage: "Request failed"},
		{name: "non-json error", status: 502, body: "<html>bad gateway</html>", wantErr: true, wantMessage: "Request failed"},
		{name: "204 with json is still json", status: 204, body: `{"message":"gone"}`, wantData: `{"message":"gone"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := normalize(tt.status, []byte(tt.body))
			if tt.wantErr {
				apiErr, ok := AsAPIError(err)
				if !ok {
					t.Fatalf("expected *APIError, got %v", err)
				}
				if apiErr.StatusCode != tt.status {
					t.Errorf("expected status %d, got %d", tt.status, apiErr.StatusCode)
				}
				if apiErr.Message != tt.wantMessage {
					t.Errorf("expected message %q, got %q", tt.wantMessage, apiErr.Message)
				}
				if apiErr.Kind != KindHTTP {
					t.Errorf("expected KindHTTP, got %s", apiErr.Kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, res.Status)
			}
			if string(res.Data) != tt.wantData {
				t.Errorf("expected data %s, got %s", tt.wantData, string(res.Data))
			}
		})
	}
}

func TestResponseMessage(t *testing.T) {
	res, err := normalize(200, []byte("Task deleted"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Message() != "Task deleted" {
		t.Errorf("expected wrapped message, got %q", res.Message())
	}

	var nilRes *Response
	if nilRes.Message() != "" {
		t.Error("nil response should have empty message")
	}
}

type countingTransport struct {
	calls int32
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	atomic.AddInt32(&c.calls, 1)
	return nil, errors.New("dial tcp: connection refused")
}

func TestNotAuthenticatedShortCircuits(t *testing.T) {
	transport := &countingTransport{}
	client := NewClient("http://example.test", WithHTTPClient(&http.Client{Transport: transport}))

	_, err := client.GetTasks(context.Background(), "u1")
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if !apiErr.IsNotAuthenticated() || apiErr.StatusCode != 401 || apiErr.Message != "Not authenticated" {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if transport.calls != 0 {
		t.Errorf("expected no request to be issued, got %d", transport.calls)
	}
	if !IsUnauthorized(err) {
		t.Error("IsUnauthorized should see through wrapping")
	}
}

func TestNetworkError(t *testing.T) {
	transport := &countingTransport{}
	client := NewClient("http://example.test", WithHTTPClient(&http.Client{Transport: transport})).WithToken("t")

	_, err := client.GetTasks(context.Background(), "u1")
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if !apiErr.IsNetwork() || apiErr.StatusCode != 0 || apiErr.Message != "Network error occurred" {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if apiErr.Unwrap() == nil {
		t.Error("expected the transport cause to be kept")
	}
	if transport.calls != 1 {
		t.Errorf("expected exactly one attempt (no retry), got %d", transport.calls)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{in: "2024-05-01T10:00:00Z"},
		{in: "2024-05-01T10:00:00.123456+02:00"},
		{in: "2024-05-01T10:00:00.123456"},
		{in: "2024-05-01 10:00:00"},
		{in: "2024-05-01"},
		{in: "yesterday", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ts, err := ParseTimestamp(tt.in)
			if tt.wantErr != (err != nil) {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && ts.Year() != 2024 {
				t.Errorf("unexpected year %d", ts.Year())
			}
		})
	}
}
