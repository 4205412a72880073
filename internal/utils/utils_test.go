package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 42, "admin", 15*time.Minute, time.Now())
	require.NoError(t, err)

	c, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), c.UserID)
	assert.Equal(t, "admin", c.Role)

	_, err = ParseAccessToken("other", tok.Token)
	assert.Error(t, err)
}

func TestAccessTokenExpired(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 1, "user", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", tok.Token)
	assert.Error(t, err)
}

func TestUIDEncoding(t *testing.T) {
	for _, id := range []uint64{1, 9, 12345, 1 << 40} {
		got, err := DecodeUID(EncodeUID(id))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
	// "MTI=" is the padded form of 12
	got, err := DecodeUID("MTI=")
	require.NoError(t, err)
	assert.Equal(t, uint64(12), got)

	_, err = DecodeUID("!!")
	assert.Error(t, err)
	_, err = DecodeUID(EncodeUID(0))
	assert.Error(t, err)
}

func TestRandomAndHash(t *testing.T) {
	a, err := RandomToken(16)
	require.NoError(t, err)
	b, err := RandomToken(16)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Len(t, HashToken(a), 64)
	assert.Equal(t, HashToken(a), HashToken(a))

	rt, err := NewRefreshToken(24*time.Hour, time.Now())
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("password1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "password1"))
	assert.False(t, VerifyPassword(h, "password2"))
}
