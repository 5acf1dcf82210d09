// Package api is a typed HTTP client for the account service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// APIError is a non-2xx answer from the service.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.StatusCode)
	}
	return e.Message
}

// Account is the account summary returned by register, login and verify-otp.
type Account struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

// PendingResponse answers register and login.
type PendingResponse struct {
	Message string  `json:"message"`
	Step    string  `json:"step"`
	User    Account `json:"user"`
}

// VerifyResponse answers a successful verify-otp.
type VerifyResponse struct {
	Message string  `json:"message"`
	Token   string  `json:"token"`
	User    Account `json:"user"`
}

// CheckResponse answers check.
type CheckResponse struct {
	LoggedIn bool     `json:"loggedIn"`
	User     *Account `json:"user,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type meResponse struct {
	Success bool    `json:"success"`
	User    Account `json:"user"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken starts the client with a previously issued session token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// Client calls the account service. It remembers the session token returned
// by VerifyOTP and presents it as a bearer token.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a client for the API rooted at baseURL, e.g. "http://localhost:8000/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current session token, if any.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Register creates an account; the service mails a registration code.
func (c *Client) Register(ctx context.Context, name, email, password string) (*PendingResponse, error) {
	var out PendingResponse
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/register", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login checks the password; the service mails a login code.
func (c *Client) Login(ctx context.Context, email, password string) (*PendingResponse, error) {
	var out PendingResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP exchanges a code for a session and keeps the token.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (*VerifyResponse, error) {
	var out VerifyResponse
	body := map[string]string{"email": email, "otp": code}
	if err := c.do(ctx, http.MethodPost, "/verify-otp", body, &out); err != nil {
		return nil, err
	}
	c.setToken(out.Token)
	return &out, nil
}

// ResendOTP asks for a fresh code and returns the service's message.
func (c *Client) ResendOTP(ctx context.Context, email string) (string, error) {
	var out messageResponse
	if err := c.do(ctx, http.MethodPost, "/otp/resend", map[string]string{"email": email}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Logout clears the server cookie and forgets the local token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/logout", nil, nil); err != nil {
		return err
	}
	c.setToken("")
	return nil
}

// Check reports whether the current token is a live session.
func (c *Client) Check(ctx context.Context) (*CheckResponse, error) {
	var out CheckResponse
	if err := c.do(ctx, http.MethodGet, "/check", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the account behind the current token.
func (c *Client) Me(ctx context.Context) (*Account, error) {
	var out meResponse
	if err := c.do(ctx, http.MethodGet, "/getme", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload); err == nil {
			apiErr.Message = payload.Message
			apiErr.Detail = payload.Error
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
