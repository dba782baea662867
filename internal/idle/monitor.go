// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"sync"
	"time"
)

// DefaultTimeout is the inactivity window.
const DefaultTimeout = 30 * time.Minute

// Timer is the part of *time.Timer the monitor uses.
type Timer interface {
	Stop() bool
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

// =============================================================================
// MONITOR
// =============================================================================

// Monitor counts down an inactivity window.
type Monitor struct {
	mu      sync.Mutex
	clock   Clock
	timeout time.Duration
	onIdle  func()

	last    time.Time
	timer   Timer
	epoch   uint64 // invalidates callbacks of replaced timers
	running bool
	fired   bool
}

// NewMonitor creates a stopped monitor that calls onIdle after timeout
// without activity. A non-positive timeout means DefaultTimeout.
func NewMonitor(timeout time.Duration, onIdle func(), opts ...Option) *Monitor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	m := &Monitor{
		clock:   realClock{},
		timeout: timeout,
		onIdle:  onIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins a fresh period. Starting a running monitor restarts it.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
	m.fired = false
	m.last = m.clock.Now()
	m.armLocked(m.timeout)
}

// Activity records user activity, restarting the countdown. After the idle
// signal has fired, activity begins a new period.
func (m *Monitor) Activity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.last = m.clock.Now()
	if m.fired {
		m.fired = false
		m.armLocked(m.timeout)
	}
}

// Stop tears the countdown down. No idle signal fires afterwards.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	m.epoch++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// Running reports whether the monitor is counting down or has fired and is
// waiting for activity.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Remaining returns the time left in the current period.
func (m *Monitor) Remaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running || m.fired {
		return 0
	}
	left := m.timeout - m.clock.Now().Sub(m.last)
	if left < 0 {
		return 0
	}
	return left
}

// Timeout returns the configured window.
func (m *Monitor) Timeout() time.Duration {
	return m.timeout
}

// armLocked replaces the pending timer with one that fires after d.
func (m *Monitor) armLocked(d time.Duration) {
	if m.timer != nil {
		m.timer.Stop()
	}
	m.epoch++
	epoch := m.epoch
	m.timer = m.clock.AfterFunc(d, func() { m.expire(epoch) })
}

// expire runs when a timer fires. If activity happened since the timer was
// armed, it re-arms for the rest of the window instead of firing.
func (m *Monitor) expire(epoch uint64) {
	m.mu.Lock()
	if !m.running || m.fired || epoch != m.epoch {
		m.mu.Unlock()
		return
	}

	idleFor := m.clock.Now().Sub(m.last)
	if idleFor < m.timeout {
		m.armLocked(m.timeout - idleFor)
		m.mu.Unlock()
		return
	}

	m.fired = true
	m.timer = nil
	onIdle := m.onIdle
	m.mu.Unlock()

	// Callback outside the lock so it may call Stop.
	if onIdle != nil {
		onIdle()
	}
}
