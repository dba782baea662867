// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jeranaias/aurora-tui/internal/credstore"
)

// DefaultRefreshTimeout bounds one refresh round trip. A hung request
// resolves to Unauthorized instead of leaving the gate undecided forever.
const DefaultRefreshTimeout = 10 * time.Second

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Options configures a Manager.
type Options struct {
	// RefreshTimeout bounds each refresh. Zero means DefaultRefreshTimeout.
	RefreshTimeout time.Duration

	// ClearOnRefreshFailure wipes the store when a refresh fails. By default
	// stale tokens are kept and the next decision simply retries the refresh.
	ClearOnRefreshFailure bool

	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

// Manager is the token lifecycle manager. It is safe for concurrent use.
type Manager struct {
	store          credstore.Store
	refresher      Refresher
	timeout        time.Duration
	clearOnFailure bool
	now            func() time.Time

	// flights collapses concurrent refreshes of the same store generation.
	flights singleflight.Group
	// waiters counts callers blocked in refresh across every flight. When it
	// is zero as a refresh returns, the result is dropped. Otherwise a stale
	// flight is kept from overwriting newer credentials only by the
	// generation check in SetAccess.
	waiters atomic.Int32
}

// NewManager creates a Manager reading and writing store.
func NewManager(store credstore.Store, refresher Refresher, opts Options) *Manager {
	timeout := opts.RefreshTimeout
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		store:          store,
		refresher:      refresher,
		timeout:        timeout,
		clearOnFailure: opts.ClearOnRefreshFailure,
		now:            now,
	}
}

// Decide computes a verdict from the current store contents, refreshing the
// access token when it has expired.
func (m *Manager) Decide(ctx context.Context) Decision {
	snap, err := m.store.Read()
	if err != nil {
		logTokenEvent("TOKEN_DECIDE_FAILED", fmt.Sprintf("reason=%s error=%v", ReasonStoreError, err))
		return unauthorized(ReasonStoreError, err)
	}
	if snap.AccessToken == "" {
		return unauthorized(ReasonMissing, nil)
	}

	exp, err := DecodeExpiry(snap.AccessToken)
	if err != nil {
		logTokenEvent("TOKEN_MALFORMED", fmt.Sprintf("error=%v", err))
		return unauthorized(ReasonMalformed, err)
	}

	if !Expired(exp, m.now()) {
		return authorized(ReasonValid, exp)
	}
	return m.refresh(ctx, snap)
}

// Refresh renews the access token unconditionally.
func (m *Manager) Refresh(ctx context.Context) Decision {
	snap, err := m.store.Read()
	if err != nil {
		return unauthorized(ReasonStoreError, err)
	}
	return m.refresh(ctx, snap)
}

// refresh joins (or starts) the in-flight refresh for snap's generation and
// waits for it or for ctx, whichever ends first.
func (m *Manager) refresh(ctx context.Context, snap credstore.Snapshot) Decision {
	if snap.RefreshToken == "" {
		return unauthorized(ReasonNoRefreshToken, nil)
	}

	m.waiters.Add(1)
	defer m.waiters.Add(-1)

	key := strconv.FormatUint(snap.Generation, 10)
	results := m.flights.DoChan(key, func() (any, error) {
		// The flight outlives any single caller; it is bounded by the
		// refresh timeout instead.
		return m.doRefresh(context.WithoutCancel(ctx), snap), nil
	})

	select {
	case <-ctx.Done():
		return unauthorized(ReasonCanceled, ctx.Err())
	case res := <-results:
		return res.Val.(Decision)
	}
}

// doRefresh performs one refresh round trip and the conditional store write.
func (m *Manager) doRefresh(ctx context.Context, snap credstore.Snapshot) Decision {
	rctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	access, err := m.refresher.Refresh(rctx, snap.RefreshToken)
	if err != nil {
		reason := ReasonRefreshFailed
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(rctx.Err(), context.DeadlineExceeded) {
			reason = ReasonTimeout
		}
		logTokenEvent("TOKEN_REFRESH_FAILED", fmt.Sprintf("reason=%s error=%v", reason, err))
		if m.clearOnFailure {
			m.clearIfUnchanged(snap)
		}
		return unauthorized(reason, err)
	}

	if m.waiters.Load() == 0 {
		logTokenEvent("TOKEN_REFRESH_ABANDONED", "reason=no_waiters")
		return unauthorized(ReasonCanceled, context.Canceled)
	}

	ok, err := m.store.SetAccess(snap, access)
	if err != nil {
		logTokenEvent("TOKEN_REFRESH_FAILED", fmt.Sprintf("reason=%s error=%v", ReasonStoreError, err))
		return unauthorized(ReasonStoreError, err)
	}
	if !ok {
		logTokenEvent("TOKEN_REFRESH_DROPPED", "reason=store_changed")
		return unauthorized(ReasonSuperseded, nil)
	}

	// The new token is stored whether or not it decodes; the next decision
	// judges it.
	exp, _ := DecodeExpiry(access)
	logTokenEvent("TOKEN_REFRESHED", fmt.Sprintf("expires=%s", exp.UTC().Format(time.RFC3339)))
	return authorized(ReasonRefreshed, exp)
}

// clearIfUnchanged wipes the store unless it was rewritten since snap.
func (m *Manager) clearIfUnchanged(snap credstore.Snapshot) {
	current, err := m.store.Read()
	if err != nil || current.Generation != snap.Generation || current.RefreshToken != snap.RefreshToken {
		return
	}
	if err := m.store.Clear(); err != nil {
		logTokenEvent("TOKEN_CLEAR_FAILED", fmt.Sprintf("error=%v", err))
	}
}

// logTokenEvent writes an event line in the session audit format. Token
// values are never logged.
func logTokenEvent(eventType, details string) {
	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05 UTC")
	log.Printf("%s | %s | %s", timestamp, eventType, details)
}
