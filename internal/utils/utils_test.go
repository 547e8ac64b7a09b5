package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestPasswordLengthLimit(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", MaxPasswordBytes), bcrypt.MinCost)
	require.NoError(t, err)

	_, err = HashPassword(strings.Repeat("a", MaxPasswordBytes+1), bcrypt.MinCost)
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
}

func TestTokenIssuer(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	require.Error(t, err)

	issuer, err := NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)

	token, err := issuer.GenerateJWT("user-1", "Admin")
	require.NoError(t, err)

	claims, err := issuer.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "Admin", claims.Role)

	other, _ := NewTokenIssuer("other-secret", time.Hour)
	_, err = other.ValidateJWT(token)
	require.Error(t, err)
}

func TestTokenExpiry(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Minute)
	require.NoError(t, err)

	start := time.Now()
	issuer.now = func() time.Time { return start }
	token, err := issuer.GenerateJWT("user-1", "Public")
	require.NoError(t, err)

	issuer.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = issuer.ValidateJWT(token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}
