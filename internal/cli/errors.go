// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes shared by every command.
//
// Handlers always return errors; main decides how to show them.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/jeranaias/aurora-tui/internal/api"
	"github.com/jeranaias/aurora-tui/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitAuthError    = 4
	ExitNetworkError = 5
)

// ErrNotSignedIn is returned by commands that need stored credentials.
var ErrNotSignedIn = errors.New("not signed in")

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "login")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Command, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError reports bad command line input.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg + " (see 'aurora --help')"
}

// TTYRequiredError is returned when an interactive prompt is needed but
// stdin is not a terminal.
type TTYRequiredError struct {
	Operation string
}

func (e *TTYRequiredError) Error() string {
	return fmt.Sprintf("%s requires an interactive terminal", e.Operation)
}

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	var (
		usage  *UsageError
		tty    *TTYRequiredError
		status *api.StatusError
		valid  config.ValidateErrors
		netErr net.Error
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &usage), errors.As(err, &tty):
		return ExitUsageError
	case errors.As(err, &valid):
		return ExitConfigError
	case errors.Is(err, ErrNotSignedIn), errors.Is(err, api.ErrRateLimited), errors.As(err, &status):
		return ExitAuthError
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		return ExitNetworkError
	default:
		return ExitGeneralError
	}
}

// DisplayError writes err in the standard format and returns the exit code.
func DisplayError(w io.Writer, err error, jsonMode bool) int {
	if err == nil {
		return ExitSuccess
	}
	if jsonMode {
		_ = NewJSONErrorResponse("", err).Write(w)
	} else {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	return ExitCode(err)
}
