package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secret1@3", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "Secret1@3", hash)

	assert.True(t, VerifyPassword(hash, "Secret1@3"))
	assert.False(t, VerifyPassword(hash, "Secret1@3x"))
	assert.False(t, VerifyPassword(hash, ""))
}

func TestHashesAreSalted(t *testing.T) {
	// Two registrations with the same password must never share a hash.
	h1, err := HashPassword("Secret1@3", bcrypt.MinCost)
	require.NoError(t, err)
	h2, err := HashPassword("Secret1@3", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, VerifyPassword(h1, "Secret1@3"))
	assert.True(t, VerifyPassword(h2, "Secret1@3"))
}
