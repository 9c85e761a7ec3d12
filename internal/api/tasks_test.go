package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockServer creates a test HTTP server for mocking API responses.
func mockServer(handler http.HandlerFunc) *httptest.Server {
	return httptest.NewServer(handler)
}

func newTestClient(serverURL string) *Client {
	return NewClient(serverURL).WithToken("test-token")
}

func TestNewClient(t *testing.T) {
	client := NewClient("")
	if client.baseURL != DefaultBaseURL {
		t.Errorf("unexpected base URL: %s", client.baseURL)
	}
	if client.HasToken() {
		t.Error("new client should not carry a token")
	}

	bound := client.WithToken("abc")
	if !bound.HasToken() || bound.accessToken != "abc" {
		t.Errorf("expected bound token abc, got %q", bound.accessToken)
	}
	if client.HasToken() {
		t.Error("WithToken must not modify the original client")
	}

	trimmed := NewClient("http://example.test/api/")
	if trimmed.BaseURL() != "http://example.test/api" {
		t.Errorf("expected trailing slash trimmed, got %s", trimmed.BaseURL())
	}
}

func TestGetTasks(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		statusCode int
		wantErr    bool
		wantCount  int
	}{
		{
			name:       "successful request",
			body:       `[{"id":"1","title":"Buy milk","completed":false,"user_id":"u1","created_at":"2024-05-01T10:00:00.123456","updated_at":"2024-05-01T10:00:00Z"}]`,
			statusCode: http.StatusOK,
			wantCount:  1,
		},
		{
			name:       "empty list",
			body:       `[]`,
			statusCode: http.StatusOK,
			wantCount:  0,
		},
		{
			name:       "unauthorized",
			body:       `{"detail":"Could not validate credentials"}`,
			statusCode: http.StatusUnauthorized,
			wantErr:    true,
		},
		{
			name:       "task without id is rejected",
			body:       `[{"title":"orphan"}]`,
			statusCode: http.StatusOK,
			wantErr:    true,
		},
		{
			name:       "wrong shape",
			body:       `{"tasks":[]}`,
			statusCode: http.StatusOK,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := mockServer(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET request, got %s", r.Method)
				}
				if r.URL.Path != "/users/u1/tasks" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
					t.Errorf("expected Bearer token, got %q", got)
				}
				if r.Header.Get(RequestIDHeader) == "" {
					t.Error("expected a request id header")
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			})
			defer server.Close()

			tasks, err := newTestClient(server.URL).GetTasks(context.Background(), "u1")

			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tasks) != tt.wantCount {
				t.Errorf("expected %d tasks, got %d", tt.wantCount, len(tasks))
			}
			if tt.wantCount > 0 {
				if tasks[0].Title != "Buy milk" {
					t.Errorf("expected title %q, got %q", "Buy milk", tasks[0].Title)
				}
				if tasks[0].CreatedAt.IsZero() {
					t.Error("expected zone-less created_at to parse")
				}
			}
		})
	}
}

func TestGetTask(t *testing.T) {
	server := mockServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/u1/tasks/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Task{ID: "42", Title: "Answer"})
	})
	defer server.Close()

	task, err := newTestClient(server.URL).GetTask(context.Background(), "u1", "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID != "42" || task.Title != "Answer" {
		t.Errorf("unexpected task %+v", task)
	}
}

func TestCreateTask(t *testing.T) {
	server := mockServer(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST request, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected JSON content type, got %q", r.Header.Get("Content-Type"))
		}

		var input TaskInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if input.Title != "Write report" || input.Description != "Q3" {
			t.Errorf("unexpected input %+v", input)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Task{ID: "srv-1", Title: input.Title, Description: input.Description, UserID: "u1"})
	})
	defer server.Close()

	task, err := newTestClient(server.URL).CreateTask(context.Background(), "u1", TaskInput{Title: "Write report", Description: "Q3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID != "srv-1" {
		t.Errorf("expected server id srv-1, got %q", task.ID)
	}
}

func TestUpdateTask(t *testing.T) {
	server := mockServer(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT request, got %s", r.Method)
		}
		if r.URL.Path != "/users/u1/tasks/7" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var task Task
		if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if task.ID != "7" {
			t.Errorf("expected full record with id 7, got %q", task.ID)
		}
		json.NewEncoder(w).Encode(task)
	})
	defer server.Close()

	updated, err := newTestClient(server.URL).UpdateTask(context.Background(), "u1", "7", Task{ID: "7", Title: "Renamed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("expected Renamed, got %q", updated.Title)
	}
}

func TestUpdateTaskClearsDescription(t *testing.T) {
	server := mockServer(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		desc, ok := body["description"]
		if !ok {
			t.Fatalf("PUT body has no description field: %v", body)
		}
		if desc != "" {
			t.Errorf("expected empty description, got %v", desc)
		}
		json.NewEncoder(w).Encode(Task{ID: "t1", Title: "x"})
	})
	defer server.Close()

	updated, err := newTestClient(server.URL).UpdateTask(context.Background(), "u1", "t1", Task{ID: "t1", Title: "x", Description: ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Description != "" {
		t.Errorf("expected cleared description, got %q", updated.Description)
	}
}

func TestDeleteTask(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    bool
	}{
		{name: "no content", statusCode: http.StatusNoContent},
		{name: "plain text message", statusCode: http.StatusOK, body: "deleted"},
		{name: "json message", statusCode: http.StatusOK, body: `{"message":"Task deleted"}`},
		{name: "not found", statusCode: http.StatusNotFound, body: `{"detail":"Task not found"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := mockServer(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodDelete {
					t.Errorf("expected DELETE request, got %s", r.Method)
				}
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			})
			defer server.Close()

			err := newTestClient(server.URL).DeleteTask(context.Background(), "u1", "9")
			if tt.wantErr != (err != nil) {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				apiErr, ok := AsAPIError(err)
				if !ok || !apiErr.IsNotFound() || apiErr.Message != "Task not found" {
					t.Errorf("expected not found APIError, got %v", err)
				}
			}
		})
	}
}

func TestUpdateTaskCompletion(t *testing.T) {
	server := mockServer(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH request, got %s", r.Method)
		}
		if r.URL.Path != "/users/u1/tasks/3/complete" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if len(body) != 1 || body["completed"] != true {
			t.Errorf("expected only the completion flag, got %v", body)
		}
		json.NewEncoder(w).Encode(Task{ID: "3", Title: "Done", Completed: true})
	})
	defer server.Close()

	task, err := newTestClient(server.URL).UpdateTaskCompletion(context.Background(), "u1", "3", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !task.Completed {
		t.Error("expected server record to be completed")
	}
}

func TestTaskPathEscaping(t *testing.T) {
	server := mockServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/users/a%2Fb/tasks" {
			t.Errorf("expected escaped user id, got %s", r.URL.EscapedPath())
		}
		w.Write([]byte(`[]`))
	})
	defer server.Close()

	if _, err := newTestClient(server.URL).GetTasks(context.Background(), "a/b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
