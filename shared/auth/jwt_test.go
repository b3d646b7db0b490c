package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTAuthenticator_RoundTrip(t *testing.T) {
	a := NewJWTAuthenticator("tezrent", "tezrent")

	now := time.Now()
	token, err := a.GenerateToken(jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "tezrent",
		Audience:  jwt.ClaimStrings{"tezrent"},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		IssuedAt:  jwt.NewNumericDate(now),
	}, "secret")
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, err = a.ValidateTokenWithClaims(token, "secret", claims)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)

	_, err = a.ValidateTokenWithClaims(token, "other-secret", &jwt.RegisteredClaims{})
	require.Error(t, err)
}

func TestJWTAuthenticator_RejectsExpiredAndForeignIssuer(t *testing.T) {
	issuedAt := time.Now()
	a := NewJWTAuthenticator("tezrent", "tezrent", WithTimeFunc(func() time.Time {
		return issuedAt.Add(2 * time.Minute)
	}))

	expired, err := a.GenerateToken(jwt.RegisteredClaims{
		Issuer:    "tezrent",
		Audience:  jwt.ClaimStrings{"tezrent"},
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Minute)),
	}, "secret")
	require.NoError(t, err)

	_, err = a.ValidateTokenWithClaims(expired, "secret", &jwt.RegisteredClaims{})
	require.ErrorIs(t, err, jwt.ErrTokenExpired)

	foreign, err := a.GenerateToken(jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Audience:  jwt.ClaimStrings{"tezrent"},
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
	}, "secret")
	require.NoError(t, err)

	_, err = a.ValidateTokenWithClaims(foreign, "secret", &jwt.RegisteredClaims{})
	require.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}
