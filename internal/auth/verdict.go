// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import "time"

// Verdict is the tri-state outcome of one guard decision. The zero value is
// Unknown, so an undecided verdict can never be mistaken for either terminal
// outcome.
type Verdict int

const (
	// Unknown means no decision has been computed yet.
	Unknown Verdict = iota
	// Authorized means protected content may be shown.
	Authorized
	// Unauthorized means the caller must be sent to the login entry point.
	Unauthorized
)

// String returns a string representation of the Verdict.
func (v Verdict) String() string {
	switch v {
	case Authorized:
		return "AUTHORIZED"
	case Unauthorized:
		return "UNAUTHORIZED"
	default:
		return "UNKNOWN"
	}
}

// Resolved reports whether v is a terminal verdict.
func (v Verdict) Resolved() bool {
	return v == Authorized || v == Unauthorized
}

// Reason explains a Decision.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonValid          Reason = "valid"
	ReasonRefreshed      Reason = "refreshed"
	ReasonMissing        Reason = "missing"
	ReasonMalformed      Reason = "malformed"
	ReasonNoRefreshToken Reason = "no_refresh_token"
	ReasonRefreshFailed  Reason = "refresh_failed"
	ReasonTimeout        Reason = "timeout"
	ReasonCanceled       Reason = "canceled"
	ReasonStoreError     Reason = "store_error"
	// ReasonSuperseded means a refresh succeeded but the store was cleared
	// or rewritten meanwhile, so the new token was dropped.
	ReasonSuperseded     Reason = "superseded"
	// ReasonInternal means the decision itself failed unexpectedly.
	ReasonInternal       Reason = "internal"
)

// Decision is a Verdict plus why it was reached.
type Decision struct {
	Verdict Verdict
	Reason  Reason
	// ExpiresAt is the access token expiry the decision was based on. Zero
	// when no token could be decoded.
	ExpiresAt time.Time
	// Err carries the underlying failure for logging. It is never shown to
	// the user.
	Err error
}

func authorized(reason Reason, exp time.Time) Decision {
	return Decision{Verdict: Authorized, Reason: reason, ExpiresAt: exp}
}

func unauthorized(reason Reason, err error) Decision {
	return Decision{Verdict: Unauthorized, Reason: reason, Err: err}
}
