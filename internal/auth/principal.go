// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Principal is an identity record. ID and Username are immutable after
// creation. TOTPSecret is present iff the second factor is enrolled.
// RefreshHash holds the hash of the single currently-valid refresh token;
// nil means no active session.
type Principal struct {
	ID           ulid.ULID
	Username     string
	PasswordHash string
	TOTPSecret   *string
	RefreshHash  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewPrincipal creates a Principal with a fresh ULID and no enrolled second
// factor or active session. Usernames carry no format constraints beyond
// being non-empty; they are unique, case-sensitive, and immutable.
func NewPrincipal(username, passwordHash string) (*Principal, error) {
	if username == "" {
		return nil, oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_PRINCIPAL").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &Principal{
		ID:           ulid.Make(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// TOTPEnrolled returns true if the principal has a TOTP secret on record.
func (p *Principal) TOTPEnrolled() bool {
	return p.TOTPSecret != nil && *p.TOTPSecret != ""
}

// PrincipalRepository manages principal persistence.
//
// Implementations must apply each mutation atomically relative to concurrent
// reads of the same record, and Create must enforce username uniqueness with
// a store-level atomic insert-if-absent.
type PrincipalRepository interface {
	// Create stores a new principal. Returns ErrDuplicateUsername if the
	// username is already taken.
	Create(ctx context.Context, principal *Principal) error

	// GetByID retrieves a principal by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*Principal, error)

	// GetByUsername retrieves a principal by username (case-sensitive).
	// Returns ErrNotFound if absent.
	GetByUsername(ctx context.Context, username string) (*Principal, error)

	// SetRefreshHash replaces the stored refresh-token hash. A nil hash
	// clears the slot, revoking the active session.
	SetRefreshHash(ctx context.Context, id ulid.ULID, hash *string) error

	// SetTOTPSecret persists the TOTP shared secret, enrolling the second
	// factor. The secret is never cleared once set.
	SetTOTPSecret(ctx context.Context, id ulid.ULID, secret string) error
}
