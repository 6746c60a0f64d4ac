package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	enc, err := c.Encrypt("ghp_secret")
	require.NoError(t, err)
	assert.NotContains(t, enc, "ghp_secret")

	again, err := c.Encrypt("ghp_secret")
	require.NoError(t, err)
	assert.NotEqual(t, enc, again, "每次加密使用随机 nonce")

	plain, err := c.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "ghp_secret", plain)
}

func TestCipherRejectsBadInput(t *testing.T) {
	_, err := NewCipher("short")
	assert.Error(t, err)

	c, err := NewCipher(testKey)
	require.NoError(t, err)

	_, err = c.Decrypt("not base64!")
	assert.Error(t, err)
	_, err = c.Decrypt("YWJj")
	assert.Error(t, err)

	other, err := NewCipher("fedcba9876543210fedcba9876543210")
	require.NoError(t, err)
	enc, err := other.Encrypt("x")
	require.NoError(t, err)
	_, err = c.Decrypt(enc)
	assert.Error(t, err)
}

func TestGlobalKey(t *testing.T) {
	require.NoError(t, SetKey(testKey))
	enc, err := Encrypt("value")
	require.NoError(t, err)
	plain, err := Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "value", plain)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("p@ss")
	require.NoError(t, err)
	assert.True(t, CheckPassword("p@ss", hash))
	assert.False(t, CheckPassword("wrong", hash))
}
