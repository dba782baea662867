// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/aurora-tui/internal/credstore"
)

var testNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func makeToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}, Type: "access"}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

// fakeRefresher returns a fixed result and optionally blocks until released.
type fakeRefresher struct {
	calls   atomic.Int32
	access  string
	err     error
	release chan struct{}
	gotTok  atomic.Value
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (string, error) {
	f.calls.Add(1)
	f.gotTok.Store(refreshToken)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.access, f.err
}

func seed(t *testing.T, store credstore.Store, access string) {
	t.Helper()
	require.NoError(t, store.WriteAll(credstore.Credentials{
		AccessToken:  access,
		RefreshToken: "refresh-1",
		Role:         credstore.RoleClinician,
		UserID:       "42",
	}))
}

func newTestManager(store credstore.Store, r Refresher, opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	return NewManager(store, r, opts)
}

// =============================================================================
// TOKEN DECODING
// =============================================================================

func TestDecodeExpiry(t *testing.T) {
	exp := testNow.Add(time.Hour)
	got, err := DecodeExpiry(makeToken(t, exp))
	require.NoError(t, err)
	assert.True(t, got.Equal(exp))
}

func TestDecodeExpiry_Malformed(t *testing.T) {
	for _, tok := range []string{"", "not-a-jwt", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.@@@.sig"} {
		_, err := DecodeExpiry(tok)
		assert.ErrorIs(t, err, ErrMalformedToken, "token %q", tok)
	}
}

func TestDecodeExpiry_NoExp(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "42"}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = DecodeExpiry(tok)
	assert.ErrorIs(t, err, ErrNoExpiry)
}

func TestExpired(t *testing.T) {
	assert.True(t, Expired(testNow, testNow), "exp equal to now counts as expired")
	assert.True(t, Expired(testNow.Add(-time.Second), testNow))
	assert.False(t, Expired(testNow.Add(time.Second), testNow))
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "UNKNOWN", Unknown.String())
	assert.Equal(t, "AUTHORIZED", Authorized.String())
	assert.Equal(t, "UNAUTHORIZED", Unauthorized.String())
	assert.False(t, Verdict(0).Resolved())
	assert.True(t, Authorized.Resolved())
	assert.True(t, Unauthorized.Resolved())
}

// =============================================================================
// DECIDE
// =============================================================================

func TestDecide_MissingToken(t *testing.T) {
	store := credstore.NewMemoryStore()
	r := &fakeRefresher{}
	d := newTestManager(store, r, Options{}).Decide(context.Background())

	assert.Equal(t, Unauthorized, d.Verdict)
	assert.Equal(t, ReasonMissing, d.Reason)
	assert.Zero(t, r.calls.Load(), "no network for a missing token")
}

func TestDecide_MalformedToken(t *testing.T) {
	store := credstore.NewMemoryStore()
	seed(t, store, "garbage")
	r := &fakeRefresher{}
	d := newTestManager(store, r, Options{}).Decide(context.Background())

	assert.Equal(t, Unauthorized, d.Verdict)
	assert.Equal(t, ReasonMalformed, d.Reason)
	assert.ErrorIs(t, d.Err, ErrMalformedToken)
	assert.Zero(t, r.calls.Load())

	snap, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, "garbage", snap.AccessToken, "malformed token is left in place")
}

func TestDecide_ValidToken(t *testing.T) {
	store := credstore.NewMemoryStore()
	access := makeToken(t, testNow.Add(5*time.Minute))
	seed(t, store, access)
	before, err := store.Read()
	require.NoError(t, err)

	r := &fakeRefresher{}
	d := newTestManager(store, r, Options{}).Decide(context.Background())

	assert.Equal(t, Authorized, d.Verdict)
	assert.Equal(t, ReasonValid, d.Reason)
	assert.True(t, d.ExpiresAt.Equal(testNow.Add(5*time.Minute)))
	assert.Zero(t, r.calls.Load())

	after, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, before, after, "store untouched")
}

func TestDecide_RepeatedValidTokenStaysLocal(t *testing.T) {
	store := credstore.NewMemoryStore()
	seed(t, store, makeToken(t, testNow.Add(5*time.Minute)))
	r := &fakeRefresher{}
	m := newTestManager(store, r, Options{})

	first := m.Decide(context.Background())
	second := m.Decide(context.Background())

	assert.Equal(t, Authorized, first.Verdict)
	assert.Equal(t, Authorized, second.Verdict)
	assert.Equal(t, ReasonValid, second.Reason)
	assert.Zero(t, r.calls.Load(), "no refresh while the token is valid")
}

func TestDecide_ExpiredRefreshes(t *testing.T) {
	store := credstore.NewMemoryStore()
	seed(t, store, makeToken(t, testNow.Add(-time.Minute)))
	fresh := makeToken(t, testNow.Add(time.Hour))
	r := &fakeRefresher{access: fresh}

	d := newTestManager(store, r, Options{}).Decide(context.Background())

	assert.Equal(t, Authorized, d.Verdict)
	assert.Equal(t, ReasonRefreshed, d.Reason)
	assert.EqualValues(t, 1, r.calls.Load())
	assert.Equal(t, "refresh-1", r.gotTok.Load())

	snap, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, fresh, snap.AccessToken)
	assert.Equal(t, "refresh-1", snap.RefreshToken)
	assert.Equal(t, credstore.RoleClinician, snap.Role)
	assert.Equal(t, "42", snap.UserID)
}

func TestDecide_ExpiryAtNowRefreshes(t *testing.T) {
	store := credstore.NewMemoryStore()
	seed(t, store, makeToken(t, testNow))
	r := &fakeRefresher{access: makeToken(t, testNow.Add(time.Hour))}

	d := newTestManager(store, r, Options{}).Decide(context.Background())
	assert.Equal(t, Authorized, d.Verdict)
	assert.EqualValues(t, 1, r.calls.Load())
}

func TestDecide_StoreError(t *testing.T) {
	store := credstore.NewMemoryStore()
	require.NoError(t, store.Close())

	d := newTestManager(store, &fakeRefresher{}, Options{}).Decide(context.Background())
	assert.Equal(t, Unauthorized, d.Verdict)
	assert.Equal(t, ReasonStoreError, d.Reason)
	assert.ErrorIs(t, d.Err, credstore.ErrClosed)
}

// =============================================================================
// REFRESH
// =============================================================================

func TestRefresh_NoRefreshToken(t *testing.T) {
	r := &fakeRefresher{}
	d := newTestManager(credstore.NewMemoryStore(), r, Options{}).Refresh(context.Background())
	assert.Equal(t, Unauthorized, d.Verdict)
	assert.Equal(t, ReasonNoRefreshToken, d.Reason)
	assert.Zero(t, r.calls.Load())
}

func TestRefresh_FailureKeepsTokens(t *testing.T) {
	store := credstore.NewMemoryStore()
	stale := makeToken(t, testNow.Add(-time.Minute))
	seed(t, store, stale)
	r := &fakeRefresher{err: errors.New("401 Unauthorized")}

	d := newTestManager(store, r, Options{}).Decide(context.Background())
	assert.Equal(t, Unauthorized, d.Verdict)
	assert.Equal(t, ReasonRefreshFailed, d.Reason)

	snap, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, stale, snap.AccessToken)
	assert.Equal(t, "refresh-1", snap.RefreshToken)
}

func TestRefresh_FailureClearsWhenConfigured(t *testing.T) {
	store := credstore.NewMemoryStore()
	seed(t, store, makeToken(t, testNow.Add(-time.Minute)))
	store.Set("theme", "dark")
	r := &fakeRefresher{err: errors.New("401 Unauthorized")}

	d := newTestManager(store, r, Options{ClearOnRefreshFailure: true}).Decide(context.Background())
	assert.Equal(t, Unauthorized, d.Verdict)

	snap, err := store.Read()
	require.NoError(t, err)
	assert.True(t, snap.Empty())
	_, ok := store.Get("theme")
	assert.False(t, ok)
}

func TestRefresh_Timeout(t *testing.T) {
	store := credstore.NewMemoryStore()
	seed(t, store, makeToken(t, testNow.Add(-time.Minute)))
	r := &fakeRefresher{release: make(chan struct{})}

	start := time.Now()
	d := newTestManager(store, r, Options{RefreshTimeout: 30 * time.Millisecond}).Decide(context.Background())

	assert.Equal(t, Unauthorized, d.Verdict)
	assert.Equal(t, ReasonTimeout, d.Reason)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRefresh_CallerCancelDropsWrite(t *testing.T) {
	store := credstore.NewMemoryStore()
	stale := makeToken(t, testNow.Add(-time.Minute))
	seed(t, store, stale)
	r := &fakeRefresher{access: makeToken(t, testNow.Add(time.Hour)), release: make(chan struct{})}
	m := newTestManager(store, r, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Decision, 1)
	go func() { done <- m.Decide(ctx) }()

	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	d := <-done
	assert.Equal(t, Unauthorized, d.Verdict)
	assert.Equal(t, ReasonCanceled, d.Reason)

	close(r.release)
	assert.Never(t, func() bool {
		snap, _ := store.Read()
		return snap.AccessToken != stale
	}, 100*time.Millisecond, 5*time.Millisecond, "abandoned refresh must not write")
}

func TestRefresh_LogoutDuringRefresh(t *testing.T) {
	store := credstore.NewMemoryStore()
	seed(t, store, makeToken(t, testNow.Add(-time.Minute)))
	r := &fakeRefresher{access: makeToken(t, testNow.Add(time.Hour)), release: make(chan struct{})}
	m := newTestManager(store, r, Options{})

	done := make(chan Decision, 1)
	go func() { done <- m.Decide(context.Background()) }()

	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, store.Clear())
	close(r.release)

	d := <-done
	assert.Equal(t, Unauthorized, d.Verdict)
	assert.Equal(t, ReasonSuperseded, d.Reason)

	snap, err := store.Read()
	require.NoError(t, err)
	assert.True(t, snap.Empty(), "a late refresh never repopulates a cleared store")
}

func TestRefresh_ConcurrentCallersShareOneFlight(t *testing.T) {
	store := credstore.NewMemoryStore()
	seed(t, store, makeToken(t, testNow.Add(-time.Minute)))
	r := &fakeRefresher{access: makeToken(t, testNow.Add(time.Hour)), release: make(chan struct{})}
	m := newTestManager(store, r, Options{})

	const callers = 5
	var wg sync.WaitGroup
	results := make(chan Decision, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- m.Decide(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return m.waiters.Load() == callers }, time.Second, time.Millisecond)
	// Waiters register just before joining the flight.
	time.Sleep(20 * time.Millisecond)
	close(r.release)
	wg.Wait()
	close(results)

	assert.EqualValues(t, 1, r.calls.Load())
	for d := range results {
		assert.Equal(t, Authorized, d.Verdict)
		assert.Equal(t, ReasonRefreshed, d.Reason)
	}
}
