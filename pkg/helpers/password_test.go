package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	// Salted: hashing twice never yields the same string.
	again, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again)
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
	assert.False(t, CheckPassword("not-a-bcrypt-hash", "hunter22"))
	assert.False(t, CheckPassword("", "hunter22"))
}
