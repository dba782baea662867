// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gate guards a protected bubbletea model.
//
// A Model starts Unknown and asks its Decider for a verdict when it is
// mounted. Until the verdict arrives only a loading indicator is drawn. On
// Authorized the child is initialised and rendered; on Unauthorized nothing
// protected is drawn and a single RedirectMsg is emitted. The verdict never
// changes for the lifetime of a mount; re-checking means mounting a new
// Model.
package gate
