// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credstore

import (
	"errors"
	"fmt"
)

// Reserved keys of the storage area.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyRole         = "role"
	KeyUserID       = "user_id"
)

var (
	// ErrIncomplete is returned by WriteAll when either token is missing.
	ErrIncomplete = errors.New("credentials must include both access and refresh tokens")

	// ErrCorrupt indicates the persisted area could not be decoded.
	ErrCorrupt = errors.New("credential store is corrupt")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("credential store is closed")
)

// Role is the identity attribute written at login. The guard never
// interprets it; collaborator screens use it for authorization.
type Role string

const (
	RoleParent    Role = "PARENT"
	RoleClinician Role = "CLINICIAN"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleParent, RoleClinician, RoleAdmin:
		return true
	}
	return false
}

// Credentials is the typed view of the reserved keys.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	Role         Role
	UserID       string
}

// Empty reports whether no credential key is set.
func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == "" && c.Role == "" && c.UserID == ""
}

// validate enforces the both-tokens-or-nothing invariant for writes.
func (c Credentials) validate() error {
	if c.AccessToken == "" || c.RefreshToken == "" {
		return ErrIncomplete
	}
	return nil
}

// Snapshot is a read of the store together with the generation it was read
// at. Pass it back to SetAccess to make the write conditional.
type Snapshot struct {
	Credentials
	Generation uint64
}

// Store is the credential store contract. Implementations are safe for
// concurrent use.
type Store interface {
	// Read returns the current credentials. A missing area reads as empty.
	Read() (Snapshot, error)

	// WriteAll replaces all four credential keys in one write.
	WriteAll(c Credentials) error

	// SetAccess overwrites only the access token, and only if the store is
	// still at prev.Generation and still holds prev.RefreshToken. It reports
	// whether the write happened.
	SetAccess(prev Snapshot, access string) (bool, error)

	// Clear removes every key in the area. Clearing an empty store is not an
	// error.
	Clear() error

	// Close releases backend resources.
	Close() error
}

// toArea flattens credentials into the reserved keys of area.
func toArea(area map[string]string, c Credentials) {
	area[KeyAccessToken] = c.AccessToken
	area[KeyRefreshToken] = c.RefreshToken
	if c.Role != "" {
		area[KeyRole] = string(c.Role)
	} else {
		delete(area, KeyRole)
	}
	if c.UserID != "" {
		area[KeyUserID] = c.UserID
	} else {
		delete(area, KeyUserID)
	}
}

// fromArea reads the reserved keys out of area.
func fromArea(area map[string]string) Credentials {
	return Credentials{
		AccessToken:  area[KeyAccessToken],
		RefreshToken: area[KeyRefreshToken],
		Role:         Role(area[KeyRole]),
		UserID:       area[KeyUserID],
	}
}

// canSetAccess checks the compare-and-set precondition shared by backends.
func canSetAccess(prev Snapshot, gen uint64, current Credentials) bool {
	return prev.Generation == gen &&
		current.RefreshToken != "" &&
		current.RefreshToken == prev.RefreshToken
}

func wrapErr(op string, err error) error {
	return fmt.Errorf("credstore %s: %w", op, err)
}
