package encryption

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestNewFieldCipher_KeyLength(t *testing.T) {
	for _, n := range []int{16, 24, 32} {
		_, err := NewFieldCipher(bytes.Repeat([]byte{1}, n))
		assert.NoError(t, err, "key length %d", n)
	}
	for _, n := range []int{0, 8, 15, 31, 33, 64} {
		_, err := NewFieldCipher(bytes.Repeat([]byte{1}, n))
		assert.Error(t, err, "key length %d", n)
	}
}

func TestFieldCipher_RoundTrip(t *testing.T) {
	fc, err := NewFieldCipher(testKey(7))
	require.NoError(t, err)

	for _, plaintext := range []string{
		"user@example.com",
		"",
		"+351 912 345 678",
		`[{"id":"a1","city":"Lisbon"}]`,
		"émoji ✓ and ünïcode",
	} {
		token, err := fc.Encrypt(plaintext)
		require.NoError(t, err)

		got, err := fc.Decrypt(token)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestFieldCipher_NonDeterministic(t *testing.T) {
	fc, err := NewFieldCipher(testKey(7))
	require.NoError(t, err)

	t1, err := fc.Encrypt("same input")
	require.NoError(t, err)
	t2, err := fc.Encrypt("same input")
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2)
}

func TestFieldCipher_WrongKey(t *testing.T) {
	fc1, err := NewFieldCipher(testKey(1))
	require.NoError(t, err)
	fc2, err := NewFieldCipher(testKey(2))
	require.NoError(t, err)

	token, err := fc1.Encrypt("secret value")
	require.NoError(t, err)

	_, err = fc2.Decrypt(token)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestFieldCipher_CorruptedToken(t *testing.T) {
	fc, err := NewFieldCipher(testKey(3))
	require.NoError(t, err)

	token, err := fc.Encrypt("payload")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(token)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	corrupted := base64.StdEncoding.EncodeToString(raw)

	_, err = fc.Decrypt(corrupted)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestFieldCipher_MalformedToken(t *testing.T) {
	fc, err := NewFieldCipher(testKey(4))
	require.NoError(t, err)

	for _, token := range []string{
		"not base64 !!!",
		"",
		base64.StdEncoding.EncodeToString([]byte("short")),
	} {
		_, err := fc.Decrypt(token)
		assert.ErrorIs(t, err, ErrDecrypt, "token %q", token)
	}
}
