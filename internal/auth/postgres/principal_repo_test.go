// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/auth"
)

func newTestPrincipal(t *testing.T) *auth.Principal {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &auth.Principal{
		ID:           ulid.Make(),
		Username:     "alice",
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$salt$hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestPrincipalRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts principal", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		principal := newTestPrincipal(t)
		mock.ExpectExec(`INSERT INTO principals`).
			WithArgs(
				principal.ID.String(),
				principal.Username,
				principal.PasswordHash,
				principal.TOTPSecret,
				principal.RefreshHash,
				principal.CreatedAt,
				principal.UpdatedAt,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := NewPrincipalRepository(mock)
		require.NoError(t, repo.Create(ctx, principal))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps unique violation to ErrDuplicateUsername", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		principal := newTestPrincipal(t)
		mock.ExpectExec(`INSERT INTO principals`).
			WithArgs(
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "principals_username_key"})

		repo := NewPrincipalRepository(mock)
		err = repo.Create(ctx, principal)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrDuplicateUsername)
	})

	t.Run("wraps other database errors", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		principal := newTestPrincipal(t)
		mock.ExpectExec(`INSERT INTO principals`).
			WithArgs(
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnError(errors.New("connection refused"))

		repo := NewPrincipalRepository(mock)
		err = repo.Create(ctx, principal)
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrDuplicateUsername)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestPrincipalRepository_GetByUsername(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stored principal", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		id := ulid.Make()
		secret := "JBSWY3DPEHPK3PXP"
		now := time.Now()
		rows := pgxmock.NewRows([]string{"id", "username", "password_hash", "totp_secret", "refresh_hash", "created_at", "updated_at"}).
			AddRow(id.String(), "alice", "hash", &secret, nil, now, now)
		mock.ExpectQuery(`SELECT id, username, password_hash, totp_secret, refresh_hash, created_at, updated_at`).
			WithArgs("alice").
			WillReturnRows(rows)

		repo := NewPrincipalRepository(mock)
		principal, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, id, principal.ID)
		assert.Equal(t, "alice", principal.Username)
		require.NotNil(t, principal.TOTPSecret)
		assert.Equal(t, secret, *principal.TOTPSecret)
		assert.Nil(t, principal.RefreshHash)
	})

	t.Run("missing principal maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"id", "username", "password_hash", "totp_secret", "refresh_hash", "created_at", "updated_at"})
		mock.ExpectQuery(`SELECT id, username, password_hash, totp_secret, refresh_hash, created_at, updated_at`).
			WithArgs("ghost").
			WillReturnRows(rows)

		repo := NewPrincipalRepository(mock)
		principal, err := repo.GetByUsername(ctx, "ghost")
		require.Error(t, err)
		assert.Nil(t, principal)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("corrupt id fails scan", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		now := time.Now()
		rows := pgxmock.NewRows([]string{"id", "username", "password_hash", "totp_secret", "refresh_hash", "created_at", "updated_at"}).
			AddRow("not-a-ulid", "alice", "hash", nil, nil, now, now)
		mock.ExpectQuery(`SELECT id, username, password_hash, totp_secret, refresh_hash, created_at, updated_at`).
			WithArgs("alice").
			WillReturnRows(rows)

		repo := NewPrincipalRepository(mock)
		_, err = repo.GetByUsername(ctx, "alice")
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestPrincipalRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("missing id maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		id := ulid.Make()
		rows := pgxmock.NewRows([]string{"id", "username", "password_hash", "totp_secret", "refresh_hash", "created_at", "updated_at"})
		mock.ExpectQuery(`SELECT id, username, password_hash, totp_secret, refresh_hash, created_at, updated_at`).
			WithArgs(id.String()).
			WillReturnRows(rows)

		repo := NewPrincipalRepository(mock)
		_, err = repo.GetByID(ctx, id)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestPrincipalRepository_SetRefreshHash(t *testing.T) {
	ctx := context.Background()

	t.Run("sets hash", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		id := ulid.Make()
		hash := "$argon2id$v=19$m=65536,t=1,p=4$salt$refresh"
		mock.ExpectExec(`UPDATE principals SET refresh_hash`).
			WithArgs(id.String(), &hash, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewPrincipalRepository(mock)
		require.NoError(t, repo.SetRefreshHash(ctx, id, &hash))
	})

	t.Run("clears hash with nil", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectExec(`UPDATE principals SET refresh_hash`).
			WithArgs(id.String(), (*string)(nil), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewPrincipalRepository(mock)
		require.NoError(t, repo.SetRefreshHash(ctx, id, nil))
	})

	t.Run("no row maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectExec(`UPDATE principals SET refresh_hash`).
			WithArgs(id.String(), (*string)(nil), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewPrincipalRepository(mock)
		err = repo.SetRefreshHash(ctx, id, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestPrincipalRepository_SetTOTPSecret(t *testing.T) {
	ctx := context.Background()

	t.Run("persists secret", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectExec(`UPDATE principals SET totp_secret`).
			WithArgs(id.String(), "JBSWY3DPEHPK3PXP", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewPrincipalRepository(mock)
		require.NoError(t, repo.SetTOTPSecret(ctx, id, "JBSWY3DPEHPK3PXP"))
	})

	t.Run("no row maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectExec(`UPDATE principals SET totp_secret`).
			WithArgs(id.String(), "JBSWY3DPEHPK3PXP", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewPrincipalRepository(mock)
		err = repo.SetTOTPSecret(ctx, id, "JBSWY3DPEHPK3PXP")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}
