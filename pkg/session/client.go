// Package session wraps a GoTrue-compatible auth provider: email/password
// sign-up and sign-in, sign-out, current-user lookup, and password reset
// emails. The client keeps the active session in memory; pkg/session's token
// stores persist it across CLI invocations.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"instaview/pkg/config"
	"instaview/pkg/logger"
)

// ErrNotInitialized is returned by every Client method when the auth provider
// URL or anon key is missing from configuration. No network is attempted.
var ErrNotInitialized = errors.New("auth client not initialized: missing URL or anon key")

// ErrNoSession is returned when an operation needs an active session and none
// is set.
var ErrNoSession = errors.New("no active session")

// User is the provider's representation of an authenticated user.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	CreatedAt    time.Time  `json:"created_at"`
	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty"`
}

// Session holds the tokens returned by a successful sign-in.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// Client talks to the provider's /auth/v1 REST surface.
type Client struct {
	baseURL     string
	anonKey     string
	redirectURL string
	httpClient  *http.Client
	log         logger.Logger

	mu      sync.RWMutex
	session *Session
}

// NewClient builds an auth client from config. A client with a missing URL or
// key is still returned; its methods fail with ErrNotInitialized.
func NewClient(cfg *config.AuthConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(cfg.URL, "/"),
		anonKey:     cfg.AnonKey,
		redirectURL: cfg.RedirectURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		log:         log,
	}
}

// Initialized reports whether the provider URL and anon key are both set.
func (c *Client) Initialized() bool {
	return c.baseURL != "" && c.anonKey != ""
}

// SetSession installs tokens restored from a token store.
func (c *Client) SetSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// CurrentSession returns the in-memory session, or nil.
func (c *Client) CurrentSession() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// SignUp registers a new email/password user. Depending on provider settings
// the response may or may not include a session (email confirmation flows
// return only the user).
func (c *Client) SignUp(ctx context.Context, email, password string) (*User, error) {
	if !c.Initialized() {
		return nil, ErrNotInitialized
	}

	body := map[string]string{"email": email, "password": password}
	var resp struct {
		Session
		User
	}
	if err := c.post(ctx, "/auth/v1/signup", "", body, &resp); err != nil {
		return nil, err
	}

	if resp.Session.AccessToken != "" {
		s := resp.Session
		c.SetSession(&s)
	}
	if resp.Session.User != nil {
		return resp.Session.User, nil
	}
	return &resp.User, nil
}

// SignIn exchanges email/password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if !c.Initialized() {
		return nil, ErrNotInitialized
	}

	body := map[string]string{"email": email, "password": password}
	var s Session
	if err := c.post(ctx, "/auth/v1/token?grant_type=password", "", body, &s); err != nil {
		return nil, err
	}
	c.SetSession(&s)
	return &s, nil
}

// SignOut revokes the active session's tokens and clears it. Clearing happens
// even when revocation fails; a lost token is revoked server-side on expiry.
func (c *Client) SignOut(ctx context.Context) error {
	if !c.Initialized() {
		return ErrNotInitialized
	}

	s := c.CurrentSession()
	c.SetSession(nil)
	if s == nil {
		return nil
	}

	if err := c.post(ctx, "/auth/v1/logout", s.AccessToken, nil, nil); err != nil {
		c.log.WithError(err).Warn("sign-out revocation failed")
		return err
	}
	return nil
}

// CurrentUser fetches the user behind the active session's access token.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	if !c.Initialized() {
		return nil, ErrNotInitialized
	}
	s := c.CurrentSession()
	if s == nil {
		return nil, ErrNoSession
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/auth/v1/user", s.AccessToken, nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := c.do(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ResetPassword asks the provider to email a recovery link.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	if !c.Initialized() {
		return ErrNotInitialized
	}

	path := "/auth/v1/recover"
	if c.redirectURL != "" {
		path += "?redirect_to=" + c.redirectURL
	}
	return c.post(ctx, path, "", map[string]string{"email": email}, nil)
}

func (c *Client) post(ctx context.Context, path, token string, body, out interface{}) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, token, payload)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// GoTrue wants the anon key in both headers unless a user token exists.
	bearer := token
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read auth response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAuthError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse auth response: %w", err)
		}
	}
	return nil
}

// parseAuthError extracts the provider's error message, which GoTrue spells
// three different ways depending on the endpoint.
func parseAuthError(status int, body []byte) error {
	var payload struct {
		Message   string `json:"message"`
		Msg       string `json:"msg"`
		ErrorDesc string `json:"error_description"`
	}
	_ = json.Unmarshal(body, &payload)

	msg := payload.Message
	if msg == "" {
		msg = payload.Msg
	}
	if msg == "" {
		msg = payload.ErrorDesc
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return fmt.Errorf("auth error (%d): %s", status, msg)
}
