package crypto

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestEncryptDecrypt(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("auth-token-value")

	encrypted, err := Encrypt(plaintext, key)
	require.NoError(t, err)

	// Шифртекст длиннее открытого текста на nonce и auth tag
	assert.Greater(t, len(encrypted), len(plaintext))
	assert.False(t, bytes.Contains(encrypted, plaintext))

	decrypted, err := Decrypt(encrypted, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptProducesUniqueNonce(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("same data")

	first, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	second, err := Encrypt(plaintext, key)
	require.NoError(t, err)

	// Одинаковый вход шифруется в разный выход благодаря случайному nonce
	assert.NotEqual(t, first, second)
}

func TestEncryptValidation(t *testing.T) {
	key := testKey(t)

	_, err := Encrypt(nil, key)
	assert.Error(t, err)

	_, err = Encrypt([]byte("data"), []byte("short key"))
	assert.Error(t, err)
}

func TestDecryptWrongKey(t *testing.T) {
	encrypted, err := Encrypt([]byte("secret"), testKey(t))
	require.NoError(t, err)

	_, err = Decrypt(encrypted, testKey(t))
	assert.Error(t, err)
}

func TestDecryptCorruptedData(t *testing.T) {
	key := testKey(t)
	encrypted, err := Encrypt([]byte("secret"), key)
	require.NoError(t, err)

	encrypted[len(encrypted)-1] ^= 0xff
	_, err = Decrypt(encrypted, key)
	assert.Error(t, err)
}

func TestDecryptTooShort(t *testing.T) {
	_, err := Decrypt([]byte{1, 2, 3}, testKey(t))
	assert.Error(t, err)
}
