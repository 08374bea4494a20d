/*
Package cryptoprim implements the symmetric and asymmetric primitives of
spec §4.1.

Symmetric encryption is AES-256-GCM: Encrypt prepends a random 12-byte
nonce and appends the 16-byte GCM tag, so ciphertext layout is
nonce || ct || tag. Decrypt is the inverse and returns ErrIntegrityFailure
on tag mismatch rather than the raw cipher error, so callers can branch on
the taxonomy in pkg/perrors.

Digest returns the hex-encoded SHA-256 of cleartext, the integrity anchor
stored as BlockMeta.Digest.

Asymmetric RSA (sign/verify via PSS-SHA256, encrypt/decrypt via a
generated symmetric key wrapped with RSA-OAEP-SHA256) is included only for
completeness with the identity layer this spec references but does not
implement; nothing in the file/vlob/block path uses it.
*/
package cryptoprim
