// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credstore

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	"github.com/jeranaias/aurora-tui/internal/util"
)

// FileStore persists the area as a JSON object in a single file.
// SECURITY: the file is written 0600 inside a 0700 directory.
type FileStore struct {
	mu     sync.Mutex
	path   string
	sealer *Sealer
	gen    uint64
	closed bool
}

// NewFileStore returns a store backed by path. A nil sealer stores plaintext
// JSON.
func NewFileStore(path string, sealer *Sealer) *FileStore {
	return &FileStore{path: path, sealer: sealer}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// load reads the area from disk. Caller holds f.mu.
func (f *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, wrapErr("read", err)
	}
	if f.sealer != nil {
		if data, err = f.sealer.Open(data); err != nil {
			return nil, wrapErr("open", err)
		}
	}

	area := make(map[string]string)
	if err := json.Unmarshal(data, &area); err != nil {
		return nil, wrapErr("decode", ErrCorrupt)
	}
	return area, nil
}

// save writes the area to disk. Caller holds f.mu.
func (f *FileStore) save(area map[string]string) error {
	data, err := json.MarshalIndent(area, "", "  ")
	if err != nil {
		return wrapErr("encode", err)
	}
	if f.sealer != nil {
		if data, err = f.sealer.Seal(data); err != nil {
			return wrapErr("seal", err)
		}
	}
	if err := util.WriteFileAtomic(f.path, data, 0600, 0700); err != nil {
		return wrapErr("write", err)
	}
	return nil
}

// Read implements Store.
func (f *FileStore) Read() (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return Snapshot{}, ErrClosed
	}
	area, err := f.load()
	if err != nil {
		return Snapshot{Generation: f.gen}, err
	}
	return Snapshot{Credentials: fromArea(area), Generation: f.gen}, nil
}

// WriteAll implements Store. Non-credential keys already in the file are
// kept.
func (f *FileStore) WriteAll(c Credentials) error {
	if err := c.validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	area, err := f.load()
	if err != nil {
		// An unreadable area is replaced rather than blocking login.
		area = make(map[string]string)
	}
	toArea(area, c)
	if err := f.save(area); err != nil {
		return err
	}
	f.gen++
	return nil
}

// SetAccess implements Store. The file is re-read under the lock so a
// logout performed by another process also fails the compare.
func (f *FileStore) SetAccess(prev Snapshot, access string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false, ErrClosed
	}
	area, err := f.load()
	if err != nil {
		return false, err
	}
	if !canSetAccess(prev, f.gen, fromArea(area)) {
		return false, nil
	}
	area[KeyAccessToken] = access
	if err := f.save(area); err != nil {
		return false, err
	}
	return true, nil
}

// Clear implements Store by removing the file, which drops every key.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.gen++
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return wrapErr("clear", err)
	}
	return nil
}

// Close implements Store.
func (f *FileStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
