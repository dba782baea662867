// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// sqliteSchema is the key/value area. One row per key.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS credential_area (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;
`

// SQLiteStore persists the area in a SQLite database.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	gen    uint64
	closed bool
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	// SECURITY: tokens live in this file
	if err := os.Chmod(path, 0600); err != nil && !os.IsNotExist(err) {
		db.Close()
		return nil, fmt.Errorf("failed to restrict database permissions: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLiteStore) loadTx(ctx context.Context, q queryer) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT key, value FROM credential_area`)
	if err != nil {
		return nil, wrapErr("query", err)
	}
	defer rows.Close()

	area := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, wrapErr("scan", err)
		}
		area[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("rows", err)
	}
	return area, nil
}

// Read implements Store.
func (s *SQLiteStore) Read() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrClosed
	}
	area, err := s.loadTx(context.Background(), s.db)
	if err != nil {
		return Snapshot{Generation: s.gen}, err
	}
	return Snapshot{Credentials: fromArea(area), Generation: s.gen}, nil
}

// WriteAll implements Store. The four keys are written in one transaction.
func (s *SQLiteStore) WriteAll(c Credentials) error {
	if err := c.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return wrapErr("begin", err)
	}
	defer tx.Rollback()

	area := make(map[string]string)
	toArea(area, c)
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyRole, KeyUserID} {
		value, ok := area[key]
		if !ok {
			if _, err := tx.Exec(`DELETE FROM credential_area WHERE key = ?`, key); err != nil {
				return wrapErr("delete", err)
			}
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO credential_area (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return wrapErr("upsert", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrapErr("commit", err)
	}
	s.gen++
	return nil
}

// SetAccess implements Store.
func (s *SQLiteStore) SetAccess(prev Snapshot, access string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return false, wrapErr("begin", err)
	}
	defer tx.Rollback()

	area, err := s.loadTx(context.Background(), tx)
	if err != nil {
		return false, err
	}
	if !canSetAccess(prev, s.gen, fromArea(area)) {
		return false, nil
	}
	if _, err := tx.Exec(`UPDATE credential_area SET value = ? WHERE key = ?`, access, KeyAccessToken); err != nil {
		return false, wrapErr("update", err)
	}
	if err := tx.Commit(); err != nil {
		return false, wrapErr("commit", err)
	}
	return true, nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.gen++
	if _, err := s.db.Exec(`DELETE FROM credential_area`); err != nil {
		return wrapErr("clear", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
