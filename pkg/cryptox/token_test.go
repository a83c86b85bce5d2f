package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Run("rejects non-positive sizes", func(t *testing.T) {
		_, err := GenerateToken(0)
		require.Error(t, err)

		_, err = GenerateToken(-1)
		require.Error(t, err)
	})

	t.Run("produces unique url-safe tokens", func(t *testing.T) {
		a, err := GenerateToken(TokenSize256)
		require.NoError(t, err)
		b, err := GenerateToken(TokenSize256)
		require.NoError(t, err)

		require.NotEqual(t, a, b)
		require.Len(t, a, 43) // 32 bytes base64url, no padding
		require.NotContains(t, a, "=")
		require.NotContains(t, a, "+")
		require.NotContains(t, a, "/")
	})
}

func TestFingerprintToken(t *testing.T) {
	token, err := GenerateToken(TokenSize256)
	require.NoError(t, err)

	fp1 := FingerprintToken(token)
	fp2 := FingerprintToken(token)
	require.Equal(t, fp1, fp2, "fingerprint must be deterministic")
	require.NotEqual(t, token, fp1)

	other := FingerprintToken(token + "x")
	require.NotEqual(t, fp1, other)
}
