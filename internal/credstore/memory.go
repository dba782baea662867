// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credstore

import "sync"

// MemoryStore keeps the area in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	area   map[string]string
	gen    uint64
	closed bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{area: make(map[string]string)}
}

// Read implements Store.
func (m *MemoryStore) Read() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Snapshot{}, ErrClosed
	}
	return Snapshot{Credentials: fromArea(m.area), Generation: m.gen}, nil
}

// WriteAll implements Store.
func (m *MemoryStore) WriteAll(c Credentials) error {
	if err := c.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	toArea(m.area, c)
	m.gen++
	return nil
}

// SetAccess implements Store.
func (m *MemoryStore) SetAccess(prev Snapshot, access string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	if !canSetAccess(prev, m.gen, fromArea(m.area)) {
		return false, nil
	}
	m.area[KeyAccessToken] = access
	return true, nil
}

// Clear implements Store.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.area = make(map[string]string)
	m.gen++
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Set writes an arbitrary non-credential key. It exists so collaborators
// (and tests) can share the area; Clear wipes these keys too.
func (m *MemoryStore) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.area[key] = value
}

// Get returns an arbitrary key of the area.
func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.area[key]
	return v, ok
}
