// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package postgres implements the auth repository interfaces on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// querier is the subset of pgxpool.Pool used by the repository. Satisfied by
// pgxmock in tests.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PrincipalRepository implements auth.PrincipalRepository using PostgreSQL.
// Uniqueness on username is enforced by the store's unique index, so
// concurrent registrations of the same name yield exactly one success.
// Single-statement writes keyed by id rely on row-level locking for
// per-principal serialization.
type PrincipalRepository struct {
	db querier
}

// NewPrincipalRepository creates a new PrincipalRepository.
func NewPrincipalRepository(db querier) *PrincipalRepository {
	return &PrincipalRepository{db: db}
}

// Create stores a new principal. A unique-violation on username maps to
// auth.ErrDuplicateUsername.
func (r *PrincipalRepository) Create(ctx context.Context, principal *auth.Principal) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO principals (id, username, password_hash, totp_secret, refresh_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		principal.ID.String(),
		principal.Username,
		principal.PasswordHash,
		principal.TOTPSecret,
		principal.RefreshHash,
		principal.CreatedAt,
		principal.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("AUTH_DUPLICATE_USERNAME").
				With("username", principal.Username).
				Wrap(auth.ErrDuplicateUsername)
		}
		return oops.Code("PRINCIPAL_CREATE_FAILED").
			With("operation", "insert principal").
			With("username", principal.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a principal by ID.
func (r *PrincipalRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Principal, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, username, password_hash, totp_secret, refresh_hash, created_at, updated_at
		FROM principals
		WHERE id = $1
	`, id.String())

	principal, err := r.scanPrincipal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PRINCIPAL_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PRINCIPAL_GET_BY_ID_FAILED").
			With("operation", "get principal by id").
			With("id", id.String()).
			Wrap(err)
	}
	return principal, nil
}

// GetByUsername retrieves a principal by username (case-sensitive).
func (r *PrincipalRepository) GetByUsername(ctx context.Context, username string) (*auth.Principal, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, username, password_hash, totp_secret, refresh_hash, created_at, updated_at
		FROM principals
		WHERE username = $1
	`, username)

	principal, err := r.scanPrincipal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PRINCIPAL_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PRINCIPAL_GET_BY_USERNAME_FAILED").
			With("operation", "get principal by username").
			With("username", username).
			Wrap(err)
	}
	return principal, nil
}

// SetRefreshHash replaces the stored refresh-token hash; nil clears the slot.
func (r *PrincipalRepository) SetRefreshHash(ctx context.Context, id ulid.ULID, hash *string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE principals SET refresh_hash = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), hash, time.Now())
	if err != nil {
		return oops.Code("PRINCIPAL_SET_REFRESH_FAILED").
			With("operation", "update refresh hash").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PRINCIPAL_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// SetTOTPSecret persists the TOTP shared secret for a principal.
func (r *PrincipalRepository) SetTOTPSecret(ctx context.Context, id ulid.ULID, secret string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE principals SET totp_secret = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), secret, time.Now())
	if err != nil {
		return oops.Code("PRINCIPAL_SET_TOTP_FAILED").
			With("operation", "update totp secret").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PRINCIPAL_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanPrincipal scans a single row into a Principal.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *PrincipalRepository) scanPrincipal(row pgx.Row) (*auth.Principal, error) {
	var (
		idStr        string
		username     string
		passwordHash string
		totpSecret   *string
		refreshHash  *string
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(&idStr, &username, &passwordHash, &totpSecret, &refreshHash, &createdAt, &updatedAt)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("PRINCIPAL_SCAN_FAILED").
			With("operation", "scan principal").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("PRINCIPAL_INVALID_ID").
			With("operation", "parse principal id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.Principal{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		TOTPSecret:   totpSecret,
		RefreshHash:  refreshHash,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.PrincipalRepository = (*PrincipalRepository)(nil)
