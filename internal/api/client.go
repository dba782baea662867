// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/aurora-tui/internal/credstore"
)

const (
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 15 * time.Second

	// MaxResponseSize caps how much of a response body is read.
	MaxResponseSize = 1 << 20

	// RefreshPath and LoginPath are relative to the base URL.
	RefreshPath = "/token/refresh/"
	LoginPath   = "/users/login/"
	ProfilePath = "/users/get-user-by-role/"

	userAgent = "aurora-tui/1.0"
)

var (
	// ErrEmptyToken means a 2xx response carried no usable token.
	ErrEmptyToken = errors.New("response did not contain a token")

	// ErrRateLimited means the client-side login throttle rejected the attempt.
	ErrRateLimited = errors.New("too many login attempts, wait a moment")
)

// Shared transport with connection pooling for every client in the process.
var sharedTransport = &http.Transport{
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 5,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// StatusError is a non-2xx response.
type StatusError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api: HTTP %d", e.Status)
	}
	return fmt.Sprintf("api: HTTP %d: %s", e.Status, e.Body)
}

// UserID accepts either a JSON string or a JSON number.
type UserID string

// UnmarshalJSON implements json.Unmarshaler.
func (u *UserID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*u = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	*u = UserID(n.String())
	return nil
}

// LoginResult is the login endpoint's success body.
type LoginResult struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    struct {
		ID   UserID `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// Profile is the signed-in user's record.
type Profile struct {
	ID        UserID `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// Name joins the first and last name.
func (p *Profile) Name() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type profileRequest struct {
	UserID any    `json:"user_id"`
	Role   string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Client calls the authentication endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for baseURL. A non-positive timeout means
// DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: sharedTransport,
			Timeout:   timeout,
		},
		// Three quick attempts, then one every two seconds.
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 3),
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Authorized returns a copy of c whose requests carry the access token
// held in store.
func (c *Client) Authorized(store credstore.Store) *Client {
	clone := *c
	return clone.WithHTTPClient(&http.Client{
		Transport: &BearerTransport{Store: store, Base: c.httpClient.Transport},
		Timeout:   c.httpClient.Timeout,
	})
}

// WithLoginLimiter replaces the login throttle. Nil disables it.
func (c *Client) WithLoginLimiter(l *rate.Limiter) *Client {
	c.limiter = l
	return c
}

// Refresh trades refreshToken for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var resp refreshResponse
	if err := c.postJSON(ctx, RefreshPath, refreshRequest{Refresh: refreshToken}, &resp); err != nil {
		return "", err
	}
	if resp.Access == "" {
		return "", ErrEmptyToken
	}
	return resp.Access, nil
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		return nil, ErrRateLimited
	}

	var resp LoginResult
	if err := c.postJSON(ctx, LoginPath, loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.Access == "" || resp.Refresh == "" {
		return nil, ErrEmptyToken
	}
	return &resp, nil
}

// Profile fetches the record for userID. The caller must be authorized.
func (c *Client) Profile(ctx context.Context, userID, role string) (*Profile, error) {
	req := profileRequest{UserID: userID, Role: role}
	if n, err := strconv.Atoi(userID); err == nil {
		req.UserID = n
	}
	var resp Profile
	if err := c.postJSON(ctx, ProfilePath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// postJSON sends body to path and decodes a 2xx response into out.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	// Never log bodies; both directions carry secrets.
	log.Printf("API Request: %s %s", req.Method, req.URL.Path)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	log.Printf("API Response: %d %s (%v)", resp.StatusCode, req.URL.Path, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Status: resp.StatusCode, Body: summarize(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// summarize keeps the start of an error body for diagnostics.
func summarize(data []byte) string {
	const max = 200
	s := strings.TrimSpace(string(data))
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
