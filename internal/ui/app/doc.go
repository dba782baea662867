// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root model of the aurora TUI.
//
// It routes between the login screen and the dashboard. The dashboard is
// always mounted behind a gate.Model and owns the inactivity monitor for as
// long as the mount is authorized. Idle expiry clears the credential store
// from the timer goroutine, then shows the inactivity notice.
package app
