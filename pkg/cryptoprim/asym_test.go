package cryptoprim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAsymSignVerify(t *testing.T) {
	priv, err := GeneratePrivateKey(1024)
	require.NoError(t, err)

	msg := []byte("message to authenticate")
	sig, err := priv.Sign(msg)
	require.NoError(t, err)

	require.NoError(t, priv.Public().Verify(msg, sig))
	require.Error(t, priv.Public().Verify([]byte("tampered"), sig))
}

func TestAsymEncryptDecrypt(t *testing.T) {
	priv, err := GeneratePrivateKey(1024)
	require.NoError(t, err)

	msg := []byte("a payload larger than one RSA block would allow directly")
	ciphertext, err := priv.Public().Encrypt(msg)
	require.NoError(t, err)

	plain, err := priv.Decrypt(ciphertext)
	require.NoError(t, err)
	require.Equal(t, msg, plain)
}

func TestGeneratePrivateKeyRejectsSmallSizes(t *testing.T) {
	_, err := GeneratePrivateKey(512)
	require.Error(t, err)
}
