// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credstore

import "fmt"

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	// Backend is one of BackendFile, BackendSQLite, BackendMemory.
	Backend string
	// Path is the credentials file or database path (ignored for memory).
	Path string
	// Encrypt seals the file backend at rest.
	Encrypt bool
	// KeyPath is where the sealing key lives when Encrypt is set.
	KeyPath string
}

// Open returns the configured Store.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil

	case BackendSQLite:
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite backend requires a path")
		}
		return OpenSQLiteStore(opts.Path)

	case BackendFile, "":
		if opts.Path == "" {
			return nil, fmt.Errorf("file backend requires a path")
		}
		var sealer *Sealer
		if opts.Encrypt {
			if opts.KeyPath == "" {
				return nil, fmt.Errorf("encrypted file backend requires a key path")
			}
			key, err := LoadOrCreateKey(opts.KeyPath)
			if err != nil {
				return nil, err
			}
			if sealer, err = NewSealer(key); err != nil {
				return nil, err
			}
		}
		return NewFileStore(opts.Path, sealer), nil

	default:
		return nil, fmt.Errorf("unknown credential store backend %q", opts.Backend)
	}
}
