// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package credstore holds the persisted credentials of the signed-in user.
//
// The store is a flat key/value area with four reserved keys
// (access_token, refresh_token, role, user_id). It is either empty or holds
// both tokens. Expiry is not tracked here; it is derived by decoding the
// access token (see package auth).
//
// # Single writer
//
// Every backend serialises its writes and carries a generation counter that
// WriteAll and Clear bump. The refresh path writes through SetAccess, a
// compare-and-set against the Snapshot it started from, so a refresh that
// resolves after a logout (or a re-login as someone else) cannot resurrect
// the old session.
//
// # Backends
//
//   - FileStore: JSON document, 0600, atomic writes, optionally sealed with
//     XChaCha20-Poly1305
//   - SQLiteStore: key/value table in a pure-Go SQLite database
//   - MemoryStore: process-local, used by tests and ephemeral runs
//
// Clear wipes the whole area, not just the four credential keys.
package credstore
