// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/auth"
)

func TestHashPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("produces valid hash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$"), "hash should be PHC argon2id format")
		assert.Len(t, strings.Split(hash, "$"), 6)
	})

	t.Run("salts every call", func(t *testing.T) {
		first, err := hasher.Hash("password123")
		require.NoError(t, err)
		second, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.NotEqual(t, first, second, "same password must hash differently per call")
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrEmptyPassword)
	})
}

func TestVerifyPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("matches correct password", func(t *testing.T) {
		hash, err := hasher.Hash("s3cret")
		require.NoError(t, err)

		ok, err := hasher.Verify("s3cret", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		hash, err := hasher.Hash("s3cret")
		require.NoError(t, err)

		ok, err := hasher.Verify("wrong", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("works for long inputs like signed tokens", func(t *testing.T) {
		token := strings.Repeat("eyJhbGciOiJIUzI1NiJ9.", 10)
		hash, err := hasher.Hash(token)
		require.NoError(t, err)

		ok, err := hasher.Verify(token, hash)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = hasher.Verify(token+"x", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("rejects malformed hash", func(t *testing.T) {
		tests := []struct {
			name string
			hash string
		}{
			{name: "not PHC format", hash: "plainhash"},
			{name: "wrong algorithm", hash: "$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
			{name: "bad salt encoding", hash: "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA"},
			{name: "bad params", hash: "$argon2id$v=19$garbage$c2FsdA$aGFzaA"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ok, err := hasher.Verify("password", tt.hash)
				require.Error(t, err)
				assert.False(t, ok)
			})
		}
	})
}
