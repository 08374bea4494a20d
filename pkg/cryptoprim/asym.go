package cryptoprim

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// MinRSABits is the minimum accepted RSA modulus size, per spec §4.1.
const MinRSABits = 1024

// PrivateKey wraps an RSA private key for signing and decrypting
// envelope-wrapped messages from the identity layer this spec references
// but does not implement.
type PrivateKey struct {
	key *rsa.PrivateKey
}

// PublicKey wraps an RSA public key for verifying and encrypting.
type PublicKey struct {
	key *rsa.PublicKey
}

// GeneratePrivateKey creates a fresh RSA key of at least MinRSABits.
func GeneratePrivateKey(bits int) (*PrivateKey, error) {
	if bits < MinRSABits {
		return nil, fmt.Errorf("minimal key size is %d bits", MinRSABits)
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// Public returns the matching public key.
func (p *PrivateKey) Public() *PublicKey {
	return &PublicKey{key: &p.key.PublicKey}
}

// Sign signs message with RSA-PSS/SHA-256.
func (p *PrivateKey) Sign(message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	return rsa.SignPSS(rand.Reader, p.key, crypto.SHA256, digest[:], nil)
}

// Decrypt reverses PublicKey.Encrypt: it unwraps the symmetric key with
// RSA-OAEP/SHA-256, then symmetrically decrypts the payload.
func (p *PrivateKey) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 4 {
		return nil, fmt.Errorf("ciphertext too short")
	}
	wrappedLen := binary.BigEndian.Uint32(ciphertext[:4])
	if uint32(len(ciphertext)) < 4+wrappedLen {
		return nil, fmt.Errorf("ciphertext truncated")
	}
	wrapped := ciphertext[4 : 4+wrappedLen]
	symCiphertext := ciphertext[4+wrappedLen:]

	rawKey, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, p.key, wrapped, nil)
	if err != nil {
		return nil, fmt.Errorf("unwrap sym key: %w", err)
	}
	symKey, err := LoadSymKey(rawKey)
	if err != nil {
		return nil, err
	}
	return symKey.Decrypt(symCiphertext)
}

// Verify checks an RSA-PSS/SHA-256 signature.
func (p *PublicKey) Verify(message, signature []byte) error {
	digest := sha256.Sum256(message)
	return rsa.VerifyPSS(p.key, crypto.SHA256, digest[:], signature, nil)
}

// Encrypt generates a fresh symmetric key, encrypts message with it, wraps
// the symmetric key with RSA-OAEP/SHA-256, and concatenates
// u32_be(len(wrapped)) || wrapped || sym_ciphertext.
func (p *PublicKey) Encrypt(message []byte) ([]byte, error) {
	symKey, err := GenerateSymKey()
	if err != nil {
		return nil, err
	}
	ciphertext, err := symKey.Encrypt(message)
	if err != nil {
		return nil, err
	}
	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, p.key, symKey.Raw(), nil)
	if err != nil {
		return nil, fmt.Errorf("wrap sym key: %w", err)
	}
	out := make([]byte, 4+len(wrapped)+len(ciphertext))
	binary.BigEndian.PutUint32(out[:4], uint32(len(wrapped)))
	copy(out[4:], wrapped)
	copy(out[4+len(wrapped):], ciphertext)
	return out, nil
}
