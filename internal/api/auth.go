package api

import (
	"context"
	"fmt"
	"net/http"
)

// Login exchanges credentials for an access token. No task data is fetched.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if _, err := c.do(ctx, http.MethodPost, "/auth/login", false, credentials{Email: email, Password: password}, &resp); err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("failed to log in: %w",
			&APIError{Kind: KindDecode, StatusCode: http.StatusOK, Message: "login response has no access_token"})
	}
	return &resp, nil
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, email, password string) (*SignupResponse, error) {
	var resp SignupResponse
	if _, err := c.do(ctx, http.MethodPost, "/auth/signup", false, credentials{Email: email, Password: password}, &resp); err != nil {
		return nil, fmt.Errorf("failed to sign up: %w", err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("failed to sign up: %w",
			&APIError{Kind: KindDecode, StatusCode: http.StatusOK, Message: "signup response has no id"})
	}
	return &resp, nil
}
