package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_BcryptHasher(t *testing.T) {
	t.Parallel()

	h := BcryptHasher{}

	t.Run("hash password", func(t *testing.T) {
		got, err := h.Hash("password")
		require.NoError(t, err)

		require.Len(t, got, 60, "bcrypt hash is 60 letters long")
		require.Equal(t, "$2a$", got[:4], "bcrypt hash should have prefix '$2a$'")
		require.NotContains(t, got, "password", "plaintext must never appear in the hash")
	})

	t.Run("empty password rejected", func(t *testing.T) {
		_, err := h.Hash("")
		require.Error(t, err)
	})

	t.Run("compare password ok", func(t *testing.T) {
		hash, err := h.Hash("password")
		require.NoError(t, err)

		err = h.Compare(hash, "password")

		require.NoError(t, err)
	})

	t.Run("fail compare if wrong password", func(t *testing.T) {
		hash, err := h.Hash("password")
		require.NoError(t, err)

		err = h.Compare(hash, "wrong")

		require.Error(t, err)
	})

	t.Run("long passwords are not truncated alike", func(t *testing.T) {
		// bcrypt alone would truncate both to the same 72 bytes,
		// the sha256 pre-hash keeps them distinct
		long := strings.Repeat("a", 80)
		hash, err := h.Hash(long)
		require.NoError(t, err)

		require.Error(t, h.Compare(hash, long+"b"))
		require.NoError(t, h.Compare(hash, long))
	})
}
