package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndCheck(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, h.Check("correct horse battery staple", hash))
	assert.False(t, h.Check("wrong password", hash))
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	assert.False(t, h.Check("anything", "not-a-bcrypt-hash"))
	assert.False(t, h.Check("anything", ""))
}

func TestNewPasswordHasher_CostFallback(t *testing.T) {
	h := NewPasswordHasher(99)
	assert.Equal(t, DefaultBcryptCost, h.cost)

	h = NewPasswordHasher(-1)
	assert.Equal(t, DefaultBcryptCost, h.cost)
}
