// Package crypto holds the small deterministic primitives of the identity
// service: email normalization and lookup hashing, and generation and
// hashing of opaque refresh secrets. Everything here is a pure function;
// key material and AEAD live in internal/encryption.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// refreshSecretBytes is the entropy of a refresh secret before encoding.
const refreshSecretBytes = 32

// NormalizeEmail trims surrounding whitespace and lowercases the address.
// All email comparisons and hashes operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailHash returns the SHA-256 hex digest of an already-normalized email.
// It is the only email-derived value that reaches the database.
func EmailHash(normalizedEmail string) string {
	sum := sha256.Sum256([]byte(normalizedEmail))
	return hex.EncodeToString(sum[:])
}

// NewRefreshSecret generates a 256-bit random secret encoded as unpadded
// base64url. The raw value goes to the client only; storage sees its hash.
func NewRefreshSecret() (string, error) {
	buf := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashRefreshSecret returns the SHA-256 hex digest of a refresh secret,
// the form under which secrets are stored and looked up.
func HashRefreshSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
