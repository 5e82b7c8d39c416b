// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

func TestNewPrincipal(t *testing.T) {
	t.Run("creates principal with fresh identity", func(t *testing.T) {
		principal, err := auth.NewPrincipal("alice", "hashed")
		require.NoError(t, err)

		assert.NotZero(t, principal.ID)
		assert.Equal(t, "alice", principal.Username)
		assert.Equal(t, "hashed", principal.PasswordHash)
		assert.Nil(t, principal.TOTPSecret)
		assert.Nil(t, principal.RefreshHash)
		assert.False(t, principal.CreatedAt.IsZero())
		assert.Equal(t, principal.CreatedAt, principal.UpdatedAt)
	})

	t.Run("distinct IDs per principal", func(t *testing.T) {
		first, err := auth.NewPrincipal("alice", "hashed")
		require.NoError(t, err)
		second, err := auth.NewPrincipal("bob", "hashed")
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("empty password hash", func(t *testing.T) {
		_, err := auth.NewPrincipal("alice", "")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_PRINCIPAL")
	})

	t.Run("empty username", func(t *testing.T) {
		_, err := auth.NewPrincipal("", "hashed")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_USERNAME")
	})

	// Usernames have no format constraints: short names, punctuation, and
	// unicode are all valid identities.
	t.Run("unconstrained username formats", func(t *testing.T) {
		for _, username := range []string{
			"ab",
			"user-name",
			"os.kar",
			"1alice",
			"_alice",
			"al ice",
			"alicé",
			strings.Repeat("a", 100),
		} {
			principal, err := auth.NewPrincipal(username, "hashed")
			require.NoError(t, err, "username %q should be accepted", username)
			assert.Equal(t, username, principal.Username)
		}
	})
}

func TestTOTPEnrolled(t *testing.T) {
	principal, err := auth.NewPrincipal("alice", "hashed")
	require.NoError(t, err)
	assert.False(t, principal.TOTPEnrolled())

	empty := ""
	principal.TOTPSecret = &empty
	assert.False(t, principal.TOTPEnrolled())

	secret := "JBSWY3DPEHPK3PXP"
	principal.TOTPSecret = &secret
	assert.True(t, principal.TOTPEnrolled())
}
