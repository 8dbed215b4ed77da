package core_test

import (
	"testing"

	"moveflow/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_BcryptRoundTrip(t *testing.T) {
	hash, err := core.HashPassword("hemligt lösenord")
	require.NoError(t, err)

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hemligt lösenord")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("fel lösenord")))
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	first, err := core.HashPassword("hemligt")
	require.NoError(t, err)
	second, err := core.HashPassword("hemligt")
	require.NoError(t, err)

	// bcrypt embeds a fresh salt, so two hashes of the same password differ.
	assert.NotEqual(t, first, second)
}
