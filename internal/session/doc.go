// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the edges of an authenticated session: the login
// write path, logout, and idle expiry. Both exits clear the entire
// credential area before any navigation happens.
package session
