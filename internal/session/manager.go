// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/aurora-tui/internal/api"
	"github.com/jeranaias/aurora-tui/internal/credstore"
)

// Authenticator is the login endpoint.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
}

// ErrMissingCredentials is returned when email or password is blank.
var ErrMissingCredentials = errors.New("email and password are required")

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager performs login and teardown against one credential store.
type Manager struct {
	store credstore.Store
	auth  Authenticator
}

// NewManager creates a session manager. auth may be nil when only teardown
// is needed.
func NewManager(store credstore.Store, auth Authenticator) *Manager {
	return &Manager{store: store, auth: auth}
}

// Login authenticates and persists all four credential values in one write.
func (m *Manager) Login(ctx context.Context, email, password string) (credstore.Credentials, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return credstore.Credentials{}, ErrMissingCredentials
	}
	if m.auth == nil {
		return credstore.Credentials{}, errors.New("no login endpoint configured")
	}

	res, err := m.auth.Login(ctx, email, password)
	if err != nil {
		logSessionEvent("SESSION_LOGIN_FAILED", "-", fmt.Sprintf("error=%v", err))
		return credstore.Credentials{}, err
	}

	creds := credstore.Credentials{
		AccessToken:  res.Access,
		RefreshToken: res.Refresh,
		Role:         credstore.Role(res.User.Role),
		UserID:       string(res.User.ID),
	}
	if err := m.store.WriteAll(creds); err != nil {
		logSessionEvent("SESSION_LOGIN_FAILED", creds.UserID, fmt.Sprintf("error=%v", err))
		return credstore.Credentials{}, err
	}
	if !creds.Role.Valid() {
		logSessionEvent("SESSION_UNKNOWN_ROLE", creds.UserID, fmt.Sprintf("role=%q", creds.Role))
	}

	logSessionEvent("SESSION_LOGIN", creds.UserID, fmt.Sprintf("role=%s", creds.Role))
	return creds, nil
}

// Logout clears the whole credential area, then navigates to login. It never
// fails visibly and makes no network call.
func (m *Manager) Logout() tea.Cmd {
	m.clear("SESSION_LOGOUT")
	return Navigate(RouteLogin)
}

// Expire clears the credential area after an idle timeout. Navigation is
// left to the inactivity notice.
func (m *Manager) Expire() {
	m.clear("SESSION_IDLE_EXPIRED")
}

func (m *Manager) clear(event string) {
	user := "-"
	if snap, err := m.store.Read(); err == nil && snap.UserID != "" {
		user = snap.UserID
	}
	if err := m.store.Clear(); err != nil {
		logSessionEvent(event+"_CLEAR_FAILED", user, fmt.Sprintf("error=%v", err))
		return
	}
	logSessionEvent(event, user, "")
}

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// LoginResultMsg reports the outcome of LoginCmd.
type LoginResultMsg struct {
	Credentials credstore.Credentials
	Err         error
}

// LoginCmd runs Login off the UI goroutine.
func (m *Manager) LoginCmd(ctx context.Context, email, password string) tea.Cmd {
	return func() tea.Msg {
		creds, err := m.Login(ctx, email, password)
		return LoginResultMsg{Credentials: creds, Err: err}
	}
}

// UserMessage turns a login error into text safe to show on the login
// screen.
func UserMessage(err error) string {
	var statusErr *api.StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredentials), errors.Is(err, api.ErrRateLimited):
		return capitalize(err.Error()) + "."
	case errors.As(err, &statusErr) &&
		(statusErr.Status == http.StatusBadRequest || statusErr.Status == http.StatusUnauthorized):
		return "Invalid email or password."
	case errors.As(err, &statusErr):
		return fmt.Sprintf("The server rejected the request (HTTP %d).", statusErr.Status)
	case errors.Is(err, context.DeadlineExceeded):
		return "The server did not respond in time."
	default:
		return "Could not reach the server."
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// logSessionEvent writes a session event line. Token values are never
// logged.
func logSessionEvent(eventType, userID, details string) {
	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05 UTC")
	log.Printf("%s | %s | user=%s %s", timestamp, eventType, userID, details)
}
