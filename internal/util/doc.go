// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the aurora packages.
//
// # Key Functions
//
//   - WriteFileAtomic: crash-safe file writing with fsync, used by the
//     credential store and config saving
//   - TruncateWidth: terminal-width-aware truncation for headers
//   - FormatDuration: compact "4m 05s" rendering for countdowns
package util
