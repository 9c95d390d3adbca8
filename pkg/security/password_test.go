package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warunglabs/kasirpos-backend/pkg/config"
)

func testPasswordConfig() config.PasswordConfig {
	// Lightweight params so the suite stays fast.
	return config.PasswordConfig{
		ArgonMemoryKiB:    8 * 1024,
		ArgonTime:         1,
		ArgonParallelism:  1,
		ArgonSaltLenBytes: 16,
		ArgonKeyLenBytes:  32,
	}
}

func TestHashPassword(t *testing.T) {
	cfg := testPasswordConfig()

	hash, err := HashPassword("kasir-rahasia", cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	again, err := HashPassword("kasir-rahasia", cfg)
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salts must differ between hashes")
}

func TestHashPasswordEmpty(t *testing.T) {
	_, err := HashPassword("", testPasswordConfig())
	assert.Error(t, err)
}

func TestVerifyPassword(t *testing.T) {
	cfg := testPasswordConfig()

	hash, err := HashPassword("kasir-rahasia", cfg)
	require.NoError(t, err)

	ok, err := VerifyPassword("kasir-rahasia", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("salah-total", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
	} {
		_, err := VerifyPassword("whatever", encoded)
		assert.ErrorIs(t, err, ErrInvalidHash, "encoded=%q", encoded)
	}
}
