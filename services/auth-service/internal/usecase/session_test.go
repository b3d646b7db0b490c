package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/usecase"
	authtypes "github.com/vasapolrittideah/tezrent-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/tezrent-api/shared/security"
)

func TestSessionIssuer_Mint(t *testing.T) {
	f := newFixture(t)

	c := usecase.WithClientInfo(ctx(), "10.0.0.7", "curl/8")
	tokens, err := f.issuer.Mint(c, "acc-1", model.RoleCustomer)
	require.NoError(t, err)

	assert.Equal(t, f.clock.Now().Add(15*time.Minute), tokens.AccessTokenExpiresAt)
	assert.Equal(t, f.clock.Now().Add(24*time.Hour), tokens.RefreshTokenExpiresAt)

	claims, err := f.issuer.VerifyAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.UserID)
	assert.Equal(t, authtypes.TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID)

	session, err := f.sessions.GetSession(ctx(), claims.SessionID)
	require.NoError(t, err)
	assert.Equal(t, security.HashSecret(tokens.RefreshToken), session.RefreshTokenHash)
	require.NotNil(t, session.IPAddress)
	assert.Equal(t, "10.0.0.7", *session.IPAddress)
}

func TestSessionIssuer_TokenTypesAreNotInterchangeable(t *testing.T) {
	f := newFixture(t)

	tokens, err := f.issuer.Mint(ctx(), "acc-1", model.RoleCustomer)
	require.NoError(t, err)

	_, err = f.issuer.VerifyAccessToken(tokens.RefreshToken)
	require.ErrorIs(t, err, usecase.ErrInvalidToken)

	_, err = f.issuer.Refresh(ctx(), tokens.AccessToken)
	require.ErrorIs(t, err, usecase.ErrInvalidToken)

	_, err = f.issuer.VerifyAccessToken("not-a-jwt")
	require.ErrorIs(t, err, usecase.ErrInvalidToken)
}

func TestSessionIssuer_AccessTokenExpiry(t *testing.T) {
	f := newFixture(t)

	tokens, err := f.issuer.Mint(ctx(), "acc-1", model.RoleCustomer)
	require.NoError(t, err)

	f.clock.Advance(16 * time.Minute)
	_, err = f.issuer.VerifyAccessToken(tokens.AccessToken)
	require.ErrorIs(t, err, usecase.ErrInvalidToken)

	refreshed, err := f.issuer.Refresh(ctx(), tokens.RefreshToken)
	require.NoError(t, err)
	_, err = f.issuer.VerifyAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
}
