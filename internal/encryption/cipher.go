// Package encryption provides field-level encryption for PII columns.
// Values are sealed with AES-GCM under a single static key and stored as
// base64(nonce || ciphertext). Decryption either returns the exact original
// plaintext or fails; a tampered or wrong-key token never yields output.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrDecrypt is returned for any undecryptable token: malformed encoding,
// truncated payload, authentication failure, or a mismatched key. Callers
// must not distinguish the causes.
var ErrDecrypt = errors.New("encryption: cannot decrypt value")

// FieldCipher seals and opens individual field values with AES-GCM.
// Safe for concurrent use.
type FieldCipher struct {
	aead cipher.AEAD
}

// NewFieldCipher builds a cipher from raw key bytes. The key must be 16,
// 24 or 32 bytes (AES-128/192/256); there is no derivation step.
func NewFieldCipher(key []byte) (*FieldCipher, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("encryption: key must be 16, 24 or 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("encryption: init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("encryption: init GCM: %w", err)
	}
	return &FieldCipher{aead: aead}, nil
}

// Encrypt seals a UTF-8 plaintext under a fresh random 96-bit nonce and
// returns base64(nonce || ciphertext). Equal plaintexts produce distinct
// tokens. The empty string is a valid plaintext.
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("encryption: nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt. Any failure is reported as
// ErrDecrypt without further detail.
func (c *FieldCipher) Decrypt(token string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", ErrDecrypt
	}
	if len(raw) < c.aead.NonceSize() {
		return "", ErrDecrypt
	}

	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
