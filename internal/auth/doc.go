// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth decides whether the caller currently holds a usable access
// token, renewing it through the refresh endpoint when it has expired.
//
// # Decision flow
//
//	no access token          -> Unauthorized (missing), no network
//	token does not decode    -> Unauthorized (malformed)
//	exp > now                -> Authorized (valid), store untouched
//	exp <= now               -> Refresh
//	  no refresh token       -> Unauthorized (no_refresh_token)
//	  endpoint 2xx           -> access_token overwritten, Authorized (refreshed)
//	  anything else          -> Unauthorized (refresh_failed / timeout)
//
// Concurrent refreshes are collapsed into one in-flight request per Manager.
// Each refresh is bounded by an explicit timeout.
package auth
