package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Use a throwaway pepper file so tests never touch a real one
	pepperPath := filepath.Join(os.TempDir(), "identity-test-pepper")
	SetPepperPath(pepperPath)

	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	os.Exit(m.Run())
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"unicode password", "contraseña密码"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			require.NoError(t, err)
			require.NotEmpty(t, hash)

			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"),
				"hash should be in PHC format")

			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6, "PHC hash should have 6 parts")
			require.NotEmpty(t, parts[4], "salt should not be empty")
			require.NotEmpty(t, parts[5], "hash should not be empty")
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	password := "samepassword"

	hash1, err := HashPassword(password)
	require.NoError(t, err)
	hash2, err := HashPassword(password)
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2, "same password should produce distinct hashes")
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	t.Run("accepts correct password", func(t *testing.T) {
		require.NoError(t, VerifyPassword("correct horse battery staple", hash))
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		err := VerifyPassword("incorrect horse", hash)
		require.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("rejects malformed hash", func(t *testing.T) {
		require.Error(t, VerifyPassword("anything", "$bcrypt$nonsense"))
	})

	t.Run("rejects truncated hash", func(t *testing.T) {
		require.Error(t, VerifyPassword("anything", "$argon2id$v=19$m=19456,t=2,p=1"))
	})
}
