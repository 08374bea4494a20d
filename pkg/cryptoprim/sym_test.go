package cryptoprim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymKeyRoundTrip(t *testing.T) {
	key, err := GenerateSymKey()
	require.NoError(t, err)

	plaintext := []byte("hello parsec")
	ct1, err := key.Encrypt(plaintext)
	require.NoError(t, err)

	pt, err := key.Decrypt(ct1)
	require.NoError(t, err)
	assert.Equal(t, plaintext, pt)

	// Encrypting the same plaintext twice yields different ciphertexts
	// (random nonce) but the same plaintext on decrypt.
	ct2, err := key.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, ct1, ct2)

	pt2, err := key.Decrypt(ct2)
	require.NoError(t, err)
	assert.Equal(t, plaintext, pt2)
}

func TestSymKeyDecryptTamperedTagFails(t *testing.T) {
	key, err := GenerateSymKey()
	require.NoError(t, err)

	ct, err := key.Encrypt([]byte("secret"))
	require.NoError(t, err)

	ct[len(ct)-1] ^= 0xFF // flip last byte of the tag
	_, err = key.Decrypt(ct)
	require.Error(t, err)
}

func TestLoadSymKeyRejectsBadLength(t *testing.T) {
	_, err := LoadSymKey([]byte("too short"))
	require.Error(t, err)
}

func TestDigestIsDeterministic(t *testing.T) {
	d1 := Digest([]byte("chunk"))
	d2 := Digest([]byte("chunk"))
	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, Digest([]byte("other chunk")))
}
