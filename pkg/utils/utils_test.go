package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	sealed, err := Encrypt([]byte("tumblr-secret"), key)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "tumblr-secret")

	plain, err := Decrypt(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, "tumblr-secret", plain)
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	sealed, err := Encrypt([]byte("value"), []byte("0123456789abcdef"))
	require.NoError(t, err)

	_, err = Decrypt(sealed, []byte("fedcba9876543210"))
	assert.Error(t, err)
}

func TestDecryptShortCiphertext(t *testing.T) {
	_, err := Decrypt("AAAA", []byte("0123456789abcdef"))
	assert.EqualError(t, err, "ciphertext too short")
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", "ops", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Operator)

	_, err = ValidateToken("other", token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken("secret", "ops", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken("secret", token)
	assert.Error(t, err)
}

func TestGenerateSecretKeyLength(t *testing.T) {
	key, err := GenerateSecretKey(16)
	require.NoError(t, err)
	assert.Len(t, key, 32)
}
