// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements aurora's non-interactive commands.
//
// # Commands
//
//	aurora                 start the TUI
//	aurora login           sign in (password read without echo)
//	aurora logout          clear stored credentials
//	aurora status          run the guard decision and print the verdict
//	aurora version         print version information
//
// Every command accepts --json for scripting. Handlers return errors;
// main prints them with DisplayError and exits with ExitCode.
package cli
