// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// FAKE CLOCK
// =============================================================================

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	done    bool
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	armed  int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	c.armed++
	return &fakeTimerHandle{clock: c, t: t}
}

type fakeTimerHandle struct {
	clock *fakeClock
	t     *fakeTimer
}

func (h *fakeTimerHandle) Stop() bool {
	h.clock.mu.Lock()
	defer h.clock.mu.Unlock()
	was := !h.t.stopped && !h.t.done
	h.t.stopped = true
	return was
}

// Advance moves time forward, running every timer that comes due, including
// timers armed by callbacks along the way.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.done || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.done = true
		if next.at.After(c.now) {
			c.now = next.at
		}
		c.mu.Unlock()
		next.f()
	}
}

func (c *fakeClock) Armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

func newTestMonitor(timeout time.Duration) (*Monitor, *fakeClock, *atomic.Int32) {
	clock := newFakeClock()
	var fired atomic.Int32
	m := NewMonitor(timeout, func() { fired.Add(1) }, WithClock(clock))
	return m, clock, &fired
}

// =============================================================================
// MONITOR
// =============================================================================

func TestMonitor_FiresOnceAfterTimeout(t *testing.T) {
	m, clock, fired := newTestMonitor(30 * time.Minute)
	m.Start()

	clock.Advance(29*time.Minute + 59*time.Second)
	assert.Zero(t, fired.Load(), "no signal before the window closes")

	clock.Advance(time.Second)
	assert.EqualValues(t, 1, fired.Load())

	clock.Advance(5 * time.Hour)
	assert.EqualValues(t, 1, fired.Load(), "one signal per period")
}

func TestMonitor_ActivityRestartsCountdown(t *testing.T) {
	m, clock, fired := newTestMonitor(30 * time.Minute)
	m.Start()

	clock.Advance(20 * time.Minute)
	m.Activity()

	clock.Advance(20 * time.Minute)
	assert.Zero(t, fired.Load(), "activity at t+20m pushes expiry to t+50m")

	clock.Advance(10 * time.Minute)
	assert.EqualValues(t, 1, fired.Load())
}

func TestMonitor_ActivityFloodKeepsOneTimer(t *testing.T) {
	m, clock, fired := newTestMonitor(time.Minute)
	m.Start()
	require.Equal(t, 1, clock.Armed())

	clock.Advance(30 * time.Second)
	for i := 0; i < 10000; i++ {
		m.Activity()
	}
	assert.Equal(t, 1, clock.Armed(), "activity does not create timers")

	clock.Advance(30 * time.Second)
	assert.Zero(t, fired.Load())
	assert.Equal(t, 2, clock.Armed(), "the timer re-armed once for the rest of the window")
}

func TestMonitor_StopPreventsFiring(t *testing.T) {
	m, clock, fired := newTestMonitor(time.Minute)
	m.Start()
	clock.Advance(30 * time.Second)
	m.Stop()

	clock.Advance(time.Hour)
	assert.Zero(t, fired.Load())
	assert.False(t, m.Running())
}

func TestMonitor_StopAfterRearmPreventsFiring(t *testing.T) {
	m, clock, fired := newTestMonitor(time.Minute)
	m.Start()
	clock.Advance(30 * time.Second)
	m.Activity()
	clock.Advance(30 * time.Second) // original expiry, re-arms for the rest
	require.Equal(t, 2, clock.Armed())
	m.Stop()

	clock.Advance(time.Hour)
	assert.Zero(t, fired.Load())
}

func TestMonitor_ActivityBeforeStartIgnored(t *testing.T) {
	m, clock, fired := newTestMonitor(time.Minute)
	m.Activity()
	assert.Zero(t, clock.Armed())
	clock.Advance(time.Hour)
	assert.Zero(t, fired.Load())
}

func TestMonitor_ActivityAfterFireStartsNewPeriod(t *testing.T) {
	m, clock, fired := newTestMonitor(time.Minute)
	m.Start()
	clock.Advance(time.Minute)
	require.EqualValues(t, 1, fired.Load())

	m.Activity()
	clock.Advance(59 * time.Second)
	assert.EqualValues(t, 1, fired.Load())
	clock.Advance(time.Second)
	assert.EqualValues(t, 2, fired.Load())
}

func TestMonitor_CallbackMayStop(t *testing.T) {
	clock := newFakeClock()
	var m *Monitor
	m = NewMonitor(time.Minute, func() { m.Stop() }, WithClock(clock))
	m.Start()

	clock.Advance(time.Minute)
	assert.False(t, m.Running())
}

func TestMonitor_Remaining(t *testing.T) {
	m, clock, _ := newTestMonitor(10 * time.Minute)
	assert.Zero(t, m.Remaining())

	m.Start()
	assert.Equal(t, 10*time.Minute, m.Remaining())
	clock.Advance(4 * time.Minute)
	assert.Equal(t, 6*time.Minute, m.Remaining())
	clock.Advance(6 * time.Minute)
	assert.Zero(t, m.Remaining())
}

func TestMonitor_DefaultTimeout(t *testing.T) {
	m := NewMonitor(0, nil)
	assert.Equal(t, DefaultTimeout, m.Timeout())
}

func TestMonitor_RealClock(t *testing.T) {
	var fired atomic.Int32
	m := NewMonitor(20*time.Millisecond, func() { fired.Add(1) })
	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool { return fired.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.EqualValues(t, 1, fired.Load())
}

// =============================================================================
// CLASSIFIER
// =============================================================================

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.Msg
		want EventKind
		ok   bool
	}{
		{"key", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")}, EventKey, true},
		{"pasted runes", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("abc")}, EventKey, true},
		{"click", tea.MouseMsg{Type: tea.MouseLeft}, EventMouseClick, true},
		{"motion", tea.MouseMsg{Type: tea.MouseMotion}, EventMouseMotion, true},
		{"wheel", tea.MouseMsg{Type: tea.MouseWheelDown}, EventMouseMotion, true},
		{"resize", tea.WindowSizeMsg{Width: 80, Height: 24}, "", false},
		{"other", struct{}{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := Kind(tt.msg)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestClassifier(t *testing.T) {
	c := NewClassifier(EventKey)
	assert.True(t, c.IsActivity(tea.KeyMsg{Type: tea.KeyEnter}))
	assert.False(t, c.IsActivity(tea.MouseMsg{Type: tea.MouseMotion}))
	assert.False(t, c.IsActivity(tea.WindowSizeMsg{}))

	def := NewClassifier()
	assert.True(t, def.Enabled(EventMouseMotion))
	assert.False(t, c.Enabled(EventMouseClick))
}

func TestParseEvents(t *testing.T) {
	kinds, err := ParseEvents([]string{"key", " Mouse_Click "})
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventKey, EventMouseClick}, kinds)

	kinds, err = ParseEvents(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultEvents, kinds)

	_, err = ParseEvents([]string{"scroll"})
	assert.Error(t, err)

	_, err = ParseEvents([]string{"paste"})
	assert.Error(t, err, "pastes are key events")
}
