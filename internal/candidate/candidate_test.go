// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package candidate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/candidate"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

func TestNew(t *testing.T) {
	t.Run("creates candidate with fresh identity", func(t *testing.T) {
		c, err := candidate.New("Alice")
		require.NoError(t, err)
		assert.NotZero(t, c.ID)
		assert.Equal(t, "Alice", c.Name)
		assert.False(t, c.CreatedAt.IsZero())
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		c, err := candidate.New("  Alice  ")
		require.NoError(t, err)
		assert.Equal(t, "Alice", c.Name)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		for _, name := range []string{"", "   ", "\t\n"} {
			_, err := candidate.New(name)
			require.Error(t, err, "name %q should be rejected", name)
			errutil.AssertErrorCode(t, err, "CANDIDATE_INVALID_NAME")
		}
	})

	t.Run("rejects over-long name", func(t *testing.T) {
		_, err := candidate.New(strings.Repeat("a", candidate.MaxNameLength+1))
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CANDIDATE_INVALID_NAME")
	})

	t.Run("distinct IDs per candidate", func(t *testing.T) {
		first, err := candidate.New("Alice")
		require.NoError(t, err)
		second, err := candidate.New("Bob")
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)
	})
}
