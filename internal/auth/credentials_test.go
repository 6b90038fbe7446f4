package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticCredentials_Plain(t *testing.T) {
	c := NewStaticCredentials("admin", "secret")

	assert.True(t, c.CheckCredentials(context.Background(), "admin", "secret"))
	assert.False(t, c.CheckCredentials(context.Background(), "admin", "Secret"))
	assert.False(t, c.CheckCredentials(context.Background(), "other", "secret"))
}

func TestStaticCredentials_Bcrypt(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	c := NewStaticCredentials("admin", hash)
	assert.True(t, c.hashed)
	assert.True(t, c.CheckCredentials(context.Background(), "admin", "hunter22"))
	assert.False(t, c.CheckCredentials(context.Background(), "admin", hash))
}
