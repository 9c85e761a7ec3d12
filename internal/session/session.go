// Package session tracks who is logged in and persists the session between runs.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hy4ri/todoify/internal/api"
)

// UnknownUserID is used when neither the login response nor the token names the user.
const UnknownUserID = "unknown"

// Store persists the token and the cached user record. Both are written and
// cleared together.
type Store interface {
	Token() (string, error)
	UserData() ([]byte, error)
	Save(token string, userData []byte) error
	Clear() error
}

// User is the cached identity of the logged-in account.
type User struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	CreatedAt api.Timestamp `json:"created_at"`
	UpdatedAt api.Timestamp `json:"updated_at"`
}

// Provider holds the session state. It is anonymous until a login, signup or
// successful hydration, and returns to anonymous on logout.
// It is safe for concurrent use.
type Provider struct {
	client *api.Client
	store  Store
	logger *slog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	user  *User
	token string
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the provider's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the clock used for fallback timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// NewProvider creates an anonymous provider. client is used unauthenticated
// for login and signup; call Init to restore a stored session.
func NewProvider(client *api.Client, store Store, opts ...Option) *Provider {
	p := &Provider{
		client: client,
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Init restores the session from the store without contacting the backend.
// Unreadable or corrupt data leaves the provider anonymous.
func (p *Provider) Init() {
	token, err := p.store.Token()
	if err != nil {
		p.logger.Warn("failed to read stored token", "error", err)
		return
	}
	data, err := p.store.UserData()
	if err != nil {
		p.logger.Warn("failed to read stored user", "error", err)
		return
	}
	if token == "" || len(data) == 0 {
		return
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		p.logger.Warn("failed to parse stored user", "error", err)
		return
	}
	if user.ID == "" {
		p.logger.Warn("stored user has no id")
		return
	}

	p.mu.Lock()
	p.user = &user
	p.token = token
	p.mu.Unlock()
	p.logger.Debug("session restored", "user_id", user.ID)
}

// Login authenticates with email and password. On failure the error is
// returned unchanged and neither memory nor storage is touched.
func (p *Provider) Login(ctx context.Context, email, password string) (*User, error) {
	resp, err := p.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	now := p.now().UTC()
	user := &User{
		ID:        resp.UserID,
		Email:     resp.Email,
		CreatedAt: resp.CreatedAt,
		UpdatedAt: resp.UpdatedAt,
	}
	if user.ID == "" {
		user.ID = userIDFromToken(resp.AccessToken)
	}
	if user.Email == "" {
		user.Email = email
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = api.NewTimestamp(now)
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = api.NewTimestamp(now)
	}

	if err := p.establish(resp.AccessToken, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Signup registers an account and starts a session for it. When the signup
// response carries no token, the same credentials are used to log in.
func (p *Provider) Signup(ctx context.Context, email, password string) (*User, error) {
	resp, err := p.client.Signup(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:        resp.ID,
		Email:     resp.Email,
		CreatedAt: resp.CreatedAt,
		UpdatedAt: resp.UpdatedAt,
	}
	if user.Email == "" {
		user.Email = email
	}

	token := resp.AccessToken
	if token == "" {
		login, err := p.client.Login(ctx, email, password)
		if err != nil {
			return nil, fmt.Errorf("account created but login failed: %w", err)
		}
		token = login.AccessToken
	}

	if err := p.establish(token, user); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginWithToken starts a session from a token obtained out of band (OAuth).
// The user id is read from the token's subject.
func (p *Provider) LoginWithToken(token, email string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("empty access token")
	}
	now := api.NewTimestamp(p.now().UTC())
	user := &User{
		ID:        userIDFromToken(token),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.establish(token, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (p *Provider) establish(token string, user *User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := p.store.Save(token, data); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	p.mu.Lock()
	p.user = user
	p.token = token
	p.mu.Unlock()
	p.logger.Info("logged in", "user_id", user.ID)
	return nil
}

// Logout drops the session from memory and storage. Memory is always
// cleared; a storage failure is returned.
func (p *Provider) Logout() error {
	p.mu.Lock()
	p.user = nil
	p.token = ""
	p.mu.Unlock()

	if err := p.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	p.logger.Info("logged out")
	return nil
}

// IsAuthenticated reports whether both a user and a token are present.
func (p *Provider) IsAuthenticated() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user != nil && p.token != ""
}

// User returns a copy of the current user, or nil when anonymous.
func (p *Provider) User() *User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.user == nil {
		return nil
	}
	u := *p.user
	return &u
}

// Token returns the current bearer token, or "" when anonymous.
func (p *Provider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

// Client returns an API client bound to the current token. After logout the
// returned client has no token and its authenticated calls fail.
func (p *Provider) Client() *api.Client {
	return p.client.WithToken(p.Token())
}

// userIDFromToken reads the subject of a JWT without verifying it; the
// backend verifies the token on every call.
func userIDFromToken(token string) string {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return UnknownUserID
	}
	if claims.Subject == "" {
		return UnknownUserID
	}
	return claims.Subject
}
