// Package auth runs the OAuth2 authorization-code flow against the Todoify backend.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/hy4ri/todoify/internal/config"
)

const (
	// Server configuration
	callbackPath    = "/callback"
	defaultAddr     = "localhost:8585"
	callbackTimeout = 5 * time.Minute
)

// TokenResponse represents the OAuth2 token response.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Email       string `json:"email,omitempty"`
}

// Flow is one configured OAuth2 client.
type Flow struct {
	cfg         config.OAuthConfig
	httpClient  *http.Client
	listenAddr  string
	timeout     time.Duration
	openBrowser func(string) error
	out         io.Writer
	onURL       func(string)
	logger      *slog.Logger
}

// FlowOption configures a Flow.
type FlowOption func(*Flow)

// WithListenAddr sets the callback server address. Port 0 picks a free port.
func WithListenAddr(addr string) FlowOption {
	return func(f *Flow) { f.listenAddr = addr }
}

// WithBrowser replaces the function that opens the authorization page.
func WithBrowser(open func(string) error) FlowOption {
	return func(f *Flow) { f.openBrowser = open }
}

// WithOutput sets where user instructions are printed.
func WithOutput(w io.Writer) FlowOption {
	return func(f *Flow) { f.out = w }
}

// WithURLHandler registers a function that receives the authorization URL
// before the browser is opened.
func WithURLHandler(fn func(string)) FlowOption {
	return func(f *Flow) { f.onURL = fn }
}

// WithHTTPClient sets the client used for the token exchange.
func WithHTTPClient(c *http.Client) FlowOption {
	return func(f *Flow) { f.httpClient = c }
}

// WithTimeout bounds how long to wait for the callback.
func WithTimeout(d time.Duration) FlowOption {
	return func(f *Flow) { f.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) FlowOption {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFlow creates a flow for the given client registration.
func NewFlow(cfg config.OAuthConfig, opts ...FlowOption) *Flow {
	f := &Flow{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		listenAddr:  defaultAddr,
		timeout:     callbackTimeout,
		openBrowser: openBrowser,
		out:         os.Stdout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// With returns a copy of the flow with opts applied on top.
func (f *Flow) With(opts ...FlowOption) *Flow {
	c := *f
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (f *Flow) validate() error {
	var missing []string
	if f.cfg.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if f.cfg.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if f.cfg.AuthorizeURL == "" {
		missing = append(missing, "authorize_url")
	}
	if f.cfg.TokenURL == "" {
		missing = append(missing, "token_url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("oauth is not configured: missing auth.oauth.%s", strings.Join(missing, ", auth.oauth."))
	}
	return nil
}

// callbackResult is what the callback handler hands back to Run.
type callbackResult struct {
	code string
	err  error
}

// Run opens the browser at the authorization page, waits for the redirect
// and exchanges the code for a token.
func (f *Flow) Run(ctx context.Context) (*TokenResponse, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	state, err := generateState()
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", f.listenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}
	redirectURI := fmt.Sprintf("http://localhost:%d%s", ln.Addr().(*net.TCPAddr).Port, callbackPath)

	results := make(chan callbackResult, 1)
	server := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deliver(results, callbackResult{err: fmt.Errorf("callback server error: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	authURL := f.authorizationURL(state, redirectURI)

	fmt.Fprintln(f.out, "Opening browser for Todoify authorization...")
	fmt.Fprintf(f.out, "If the browser doesn't open, please visit:\n%s\n\n", authURL)
	if f.onURL != nil {
		f.onURL(authURL)
	}
	if err := f.openBrowser(authURL); err != nil {
		f.logger.Warn("failed to open browser", "error", err)
	}
	fmt.Fprintln(f.out, "Waiting for authorization...")

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	select {
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		return f.exchange(ctx, res.code, redirectURI)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("authorization timed out after %v: %w", f.timeout, ctx.Err())
		}
		return nil, ctx.Err()
	}
}

// deliver sends without blocking; only the first callback counts.
func deliver(ch chan<- callbackResult, res callbackResult) {
	select {
	case ch <- res:
	default:
	}
}

func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		w.Header().Set("Content-Type", "text/html")

		if errMsg := q.Get("error"); errMsg != "" {
			deliver(results, callbackResult{err: fmt.Errorf("authorization denied: %s", errMsg)})
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `<html><body><h1>Authorization Failed</h1><p>%s</p><p>You can close this window.</p></body></html>`, html.EscapeString(errMsg))
			return
		}

		if q.Get("state") != state {
			deliver(results, callbackResult{err: fmt.Errorf("authorization state mismatch")})
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `<html><body><h1>Authorization Failed</h1><p>Invalid state.</p><p>You can close this window.</p></body></html>`)
			return
		}

		code := q.Get("code")
		if code == "" {
			deliver(results, callbackResult{err: fmt.Errorf("no authorization code received")})
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `<html><body><h1>Authorization Failed</h1><p>No authorization code received.</p><p>You can close this window.</p></body></html>`)
			return
		}

		fmt.Fprint(w, `<html><body><h1>Authorization Successful!</h1><p>You can close this window and return to the terminal.</p></body></html>`)
		deliver(results, callbackResult{code: code})
	})
	return mux
}

// authorizationURL constructs the OAuth2 authorization URL.
func (f *Flow) authorizationURL(state, redirectURI string) string {
	params := url.Values{
		"client_id":     {f.cfg.ClientID},
		"state":         {state},
		"redirect_uri":  {redirectURI},
		"response_type": {"code"},
	}
	if f.cfg.Scope != "" {
		params.Set("scope", f.cfg.Scope)
	}
	sep := "?"
	if strings.Contains(f.cfg.AuthorizeURL, "?") {
		sep = "&"
	}
	return f.cfg.AuthorizeURL + sep + params.Encode()
}

// generateState returns a random hex string for CSRF protection.
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// exchange trades the authorization code for an access token.
func (f *Flow) exchange(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {f.cfg.ClientID},
		"client_secret": {f.cfg.ClientSecret},
		"code":          {code},
		"redirect_uri":  {redirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed with status %d", resp.StatusCode)
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("received empty access token")
	}

	return &tokenResp, nil
}

// openBrowser opens the default browser to the given URL.
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default: // Linux and others
		cmd = exec.Command("xdg-open", url)
	}

	return cmd.Start()
}
