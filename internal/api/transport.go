// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/jeranaias/aurora-tui/internal/credstore"
)

// BearerTransport adds the stored access token to outgoing requests.
// Requests that already carry an Authorization header are left alone.
type BearerTransport struct {
	Store credstore.Store
	// Base is the wrapped transport. Nil means http.DefaultTransport.
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if req.Header.Get("Authorization") != "" || t.Store == nil {
		return base.RoundTrip(req)
	}

	snap, err := t.Store.Read()
	if err != nil || snap.AccessToken == "" {
		return base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+snap.AccessToken)
	return base.RoundTrip(clone)
}
