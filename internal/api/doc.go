// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api talks to the record service's authentication endpoints.
//
// Two calls matter to the session guard: the token refresh endpoint, which
// trades a refresh token for a new access token, and the login endpoint,
// which issues both tokens together with the user's role and id.
// BearerTransport attaches the stored access token to every other request.
package api
