// Package vault implements the encrypted persistence layer: key derivation
// from the user's credential, authenticated encryption of persisted blobs,
// owner-checked blob access, and re-encryption when the credential changes.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// kdfIterations is the PBKDF2 iteration count for key derivation.
	kdfIterations = 100000
	keyBytes      = 32
	saltBytes     = 16
)

// blobMagic prefixes every ciphertext inside the base64 envelope. It lets
// IsLikelyEncrypted distinguish encrypted blobs from legacy plaintext without
// attempting a decryption; it is a migration aid, never a security boundary.
var blobMagic = []byte("FDV1")

// DecryptionError reports a failed authenticated decryption. Decryption
// fails closed: a wrong key, truncated input, or corrupted blob always
// yields an error, never garbage plaintext.
type DecryptionError struct {
	Reason string
	Err    error
}

func (e *DecryptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decryption failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decryption failed: %s", e.Reason)
}

func (e *DecryptionError) Unwrap() error {
	return e.Err
}

// DeriveKey derives the symmetric blob key for a user from their username and
// current stored password hash. The username doubles as a fixed-length salt,
// truncated or right-padded to 16 bytes with '0'. Same inputs always yield
// the same key; changing either input changes the key. Keys are never
// persisted.
func DeriveKey(username, passwordHash string) []byte {
	salt := make([]byte, saltBytes)
	for i := range salt {
		salt[i] = '0'
	}
	copy(salt, username)
	return pbkdf2.Key([]byte(passwordHash), salt, kdfIterations, keyBytes, sha256.New)
}

// Encrypt seals a plaintext under the key with AES-256-GCM and returns the
// base64 blob form stored in the backend.
func Encrypt(plaintext, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("error creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("error creating GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("error generating nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, blobMagic)
	blob := make([]byte, 0, len(blobMagic)+len(nonce)+len(sealed))
	blob = append(blob, blobMagic...)
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt opens a blob produced by Encrypt. It returns a *DecryptionError on
// wrong key, truncated input, or any corruption.
func Decrypt(blob string, key []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, &DecryptionError{Reason: "not base64", Err: err}
	}
	if len(raw) < len(blobMagic) || string(raw[:len(blobMagic)]) != string(blobMagic) {
		return nil, &DecryptionError{Reason: "missing blob header"}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, &DecryptionError{Reason: "bad key", Err: err}
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, &DecryptionError{Reason: "bad cipher", Err: err}
	}

	body := raw[len(blobMagic):]
	if len(body) < gcm.NonceSize() {
		return nil, &DecryptionError{Reason: "truncated blob"}
	}
	nonce, sealed := body[:gcm.NonceSize()], body[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, sealed, blobMagic)
	if err != nil {
		return nil, &DecryptionError{Reason: "authentication failed", Err: err}
	}
	return plaintext, nil
}

// IsLikelyEncrypted reports whether stored content looks like an Encrypt
// blob rather than legacy plaintext (a bare "{}" or a CSV header). Used only
// to support the non-disruptive migration of pre-encryption data.
func IsLikelyEncrypted(content []byte) bool {
	raw, err := base64.StdEncoding.DecodeString(string(content))
	if err != nil {
		return false
	}
	return len(raw) >= len(blobMagic) && string(raw[:len(blobMagic)]) == string(blobMagic)
}
