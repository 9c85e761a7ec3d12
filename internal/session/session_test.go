package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hy4ri/todoify/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	token    string
	userData []byte
	saves    int
	saveErr  error
}

func (s *memStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *memStore) UserData() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userData, nil
}

func (s *memStore) Save(token string, userData []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.token = token
	s.userData = userData
	return nil
}

func (s *memStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.userData = nil
	return nil
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestProvider(t *testing.T, handler http.HandlerFunc, store Store) (*Provider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := api.NewClient(server.URL, api.WithLogger(logger))
	p := NewProvider(client, store, WithLogger(logger), WithClock(func() time.Time { return fixedNow }))
	return p, server
}

func signedToken(t *testing.T, subject string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: subject}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestLoginSuccessPersistsSession(t *testing.T) {
	store := &memStore{}
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","user_id":"u1","email":"a@b.c","created_at":"2024-01-01T00:00:00"}`))
	}, store)

	user, err := p.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)

	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "a@b.c", user.Email)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), user.CreatedAt.Time)
	assert.Equal(t, fixedNow, user.UpdatedAt.Time)

	assert.True(t, p.IsAuthenticated())
	assert.Equal(t, "tok-1", p.Token())
	assert.True(t, p.Client().HasToken())

	assert.Equal(t, "tok-1", store.token)
	var stored User
	require.NoError(t, json.Unmarshal(store.userData, &stored))
	assert.Equal(t, "u1", stored.ID)
}

func TestLoginWrongPasswordLeavesSessionUntouched(t *testing.T) {
	store := &memStore{}
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid password"}`))
	}, store)

	user, err := p.Login(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)
	assert.Nil(t, user)

	apiErr, ok := api.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid password", apiErr.Message)

	assert.False(t, p.IsAuthenticated())
	assert.Nil(t, p.User())
	assert.Zero(t, store.saves)
	assert.Empty(t, store.token)
	assert.Nil(t, store.userData)
}

func TestLoginUserIDFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		wantID string
	}{
		{name: "jwt subject", token: "", wantID: "u42"},
		{name: "opaque token", token: "not-a-jwt", wantID: UnknownUserID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := tt.token
			if token == "" {
				token = signedToken(t, "u42")
			}
			p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]string{"access_token": token})
			}, &memStore{})

			user, err := p.Login(context.Background(), "typed@b.c", "secret")
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, user.ID)
			assert.Equal(t, "typed@b.c", user.Email)
			assert.Equal(t, fixedNow, user.CreatedAt.Time)
		})
	}
}

func TestLoginSaveFailure(t *testing.T) {
	store := &memStore{saveErr: errors.New("disk full")}
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok","user_id":"u1"}`))
	}, store)

	_, err := p.Login(context.Background(), "a@b.c", "secret")
	assert.ErrorContains(t, err, "disk full")
	assert.False(t, p.IsAuthenticated())
}

func TestSignupLogsInWhenNoTokenReturned(t *testing.T) {
	var calls []string
	store := &memStore{}
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		switch r.URL.Path {
		case "/auth/signup":
			w.Write([]byte(`{"id":"u7","email":"new@b.c","created_at":"2024-02-02T10:00:00","updated_at":"2024-02-02T10:00:00"}`))
		case "/auth/login":
			w.Write([]byte(`{"access_token":"tok-7","user_id":"u7"}`))
		}
	}, store)

	user, err := p.Signup(context.Background(), "new@b.c", "secret1")
	require.NoError(t, err)

	assert.Equal(t, []string{"/auth/signup", "/auth/login"}, calls)
	assert.Equal(t, "u7", user.ID)
	assert.Equal(t, "tok-7", store.token)
	assert.True(t, p.IsAuthenticated())
}

func TestSignupUsesReturnedToken(t *testing.T) {
	var calls int
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"id":"u8","email":"x@b.c","access_token":"tok-8"}`))
	}, &memStore{})

	_, err := p.Signup(context.Background(), "x@b.c", "secret1")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "tok-8", p.Token())
}

func TestSignupErrorIsReturned(t *testing.T) {
	store := &memStore{}
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Email already registered"}`))
	}, store)

	_, err := p.Signup(context.Background(), "dup@b.c", "secret1")
	require.Error(t, err)
	assert.False(t, p.IsAuthenticated())
	assert.Zero(t, store.saves)
}

func TestInitHydratesFromStore(t *testing.T) {
	store := &memStore{token: "tok", userData: []byte(`{"id":"u1","email":"a@b.c"}`)}
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("hydration must not contact the backend")
	}, store)

	p.Init()

	require.True(t, p.IsAuthenticated())
	assert.Equal(t, "u1", p.User().ID)
	assert.Equal(t, "tok", p.Token())
}

func TestInitCorruptUserStaysAnonymous(t *testing.T) {
	tests := []struct {
		name  string
		store *memStore
	}{
		{name: "bad json", store: &memStore{token: "tok", userData: []byte(`{not json`)}},
		{name: "missing id", store: &memStore{token: "tok", userData: []byte(`{"email":"a@b.c"}`)}},
		{name: "no token", store: &memStore{userData: []byte(`{"id":"u1"}`)}},
		{name: "empty", store: &memStore{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {}, tt.store)
			p.Init()
			assert.False(t, p.IsAuthenticated())
			assert.Nil(t, p.User())
		})
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	store := &memStore{token: "tok", userData: []byte(`{"id":"u1"}`)}
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("logout must not contact the backend")
	}, store)
	p.Init()
	require.True(t, p.IsAuthenticated())

	require.NoError(t, p.Logout())

	assert.False(t, p.IsAuthenticated())
	assert.Empty(t, store.token)
	assert.Nil(t, store.userData)

	_, err := p.Client().GetTasks(context.Background(), "u1")
	assert.True(t, api.IsUnauthorized(err))
}

func TestLoginWithToken(t *testing.T) {
	store := &memStore{}
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {}, store)

	user, err := p.LoginWithToken(signedToken(t, "oauth-user"), "o@b.c")
	require.NoError(t, err)
	assert.Equal(t, "oauth-user", user.ID)
	assert.True(t, p.IsAuthenticated())

	_, err = p.LoginWithToken("  ", "o@b.c")
	assert.Error(t, err)
}
