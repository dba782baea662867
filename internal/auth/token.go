// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	// ErrMalformedToken is returned when the access token cannot be decoded.
	ErrMalformedToken = errors.New("malformed access token")

	// ErrNoExpiry is returned when a token decodes but carries no exp claim.
	ErrNoExpiry = errors.New("access token has no expiry")
)

// tokenParser only decodes. The client never holds the signing key, so the
// signature is the server's concern.
var tokenParser = jwt.NewParser()

// Claims is the subset of access token claims the client reads.
type Claims struct {
	jwt.RegisteredClaims
	UserID any    `json:"user_id,omitempty"`
	Type   string `json:"token_type,omitempty"`
}

// DecodeExpiry returns the embedded expiry of an access token.
func DecodeExpiry(token string) (time.Time, error) {
	claims, err := Decode(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// Decode parses the claims of token without verifying its signature.
func Decode(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := tokenParser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}

// Expired reports whether exp is at or before now.
func Expired(exp, now time.Time) bool {
	return !exp.After(now)
}
