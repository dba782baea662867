// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package idle detects user inactivity.
//
// A Monitor runs one countdown per period. Recognised activity restarts the
// countdown; reaching zero fires the idle callback exactly once. The monitor
// holds a single timer and Activity only records a timestamp, so a flood of
// mouse motion costs nothing more than a mutex.
package idle
