package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/repository"
	authtypes "github.com/vasapolrittideah/tezrent-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/tezrent-api/shared/auth"
	"github.com/vasapolrittideah/tezrent-api/shared/clock"
	"github.com/vasapolrittideah/tezrent-api/shared/security"
)

// SessionIssuer mints and manages the token pair handed out after a successful
// authentication.
type SessionIssuer interface {
	Mint(ctx context.Context, accountID string, role model.Role) (*authtypes.Tokens, error)
	VerifyAccessToken(token string) (*authtypes.JWTClaims, error)
	// Refresh exchanges a refresh token for a new pair. Each refresh token
	// can be exchanged once.
	Refresh(ctx context.Context, refreshToken string) (*authtypes.Tokens, error)
	// Revoke ends the session the refresh token belongs to.
	Revoke(ctx context.Context, refreshToken string) error
}

type clientInfoKey struct{}

type clientInfo struct {
	ip        string
	userAgent string
}

// WithClientInfo attaches the caller's address and user agent so that minted
// sessions record them.
func WithClientInfo(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, clientInfo{ip: ip, userAgent: userAgent})
}

type sessionIssuer struct {
	sessionRepo repository.SessionRepository
	jwtAuth     auth.JWTAuthenticator
	tokenCfg    config.TokenConfig
	clock       clock.Clock
}

func NewSessionIssuer(
	sessionRepo repository.SessionRepository,
	jwtAuth auth.JWTAuthenticator,
	tokenCfg config.TokenConfig,
	clk clock.Clock,
) SessionIssuer {
	return &sessionIssuer{
		sessionRepo: sessionRepo,
		jwtAuth:     jwtAuth,
		tokenCfg:    tokenCfg,
		clock:       clk,
	}
}

func (s *sessionIssuer) Mint(ctx context.Context, accountID string, role model.Role) (*authtypes.Tokens, error) {
	sessionID := bson.NewObjectID()

	tokens, err := s.generateTokens(accountID, sessionID.Hex(), role)
	if err != nil {
		return nil, err
	}

	session := &model.Session{
		ID:                    sessionID,
		UserID:                accountID,
		Role:                  role,
		RefreshTokenHash:      security.HashSecret(tokens.RefreshToken),
		AccessTokenExpiresAt:  tokens.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: tokens.RefreshTokenExpiresAt,
	}
	if info, ok := ctx.Value(clientInfoKey{}).(clientInfo); ok {
		session.IPAddress = &info.ip
		session.UserAgent = &info.userAgent
	}

	if _, err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, unavailable(err)
	}

	return tokens, nil
}

func (s *sessionIssuer) VerifyAccessToken(token string) (*authtypes.JWTClaims, error) {
	return s.parse(token, s.tokenCfg.AccessTokenSecret, authtypes.TokenTypeAccess)
}

func (s *sessionIssuer) Refresh(ctx context.Context, refreshToken string) (*authtypes.Tokens, error) {
	claims, err := s.parse(refreshToken, s.tokenCfg.RefreshTokenSecret, authtypes.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	tokens, err := s.generateTokens(claims.UserID, claims.SessionID, model.Role(claims.Role))
	if err != nil {
		return nil, err
	}

	_, err = s.sessionRepo.RotateRefreshToken(ctx, claims.SessionID, security.HashSecret(refreshToken),
		repository.RotateRefreshTokenParams{
			RefreshTokenHash:      security.HashSecret(tokens.RefreshToken),
			AccessTokenExpiresAt:  tokens.AccessTokenExpiresAt,
			RefreshTokenExpiresAt: tokens.RefreshTokenExpiresAt,
		},
	)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, unavailable(err)
	}

	return tokens, nil
}

func (s *sessionIssuer) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := s.parse(refreshToken, s.tokenCfg.RefreshTokenSecret, authtypes.TokenTypeRefresh)
	if err != nil {
		return err
	}

	session, err := s.sessionRepo.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrInvalidToken
		}
		return unavailable(err)
	}

	if !security.EqualHashes(session.RefreshTokenHash, security.HashSecret(refreshToken)) {
		return ErrInvalidToken
	}

	if err := s.sessionRepo.DeleteSession(ctx, claims.SessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrInvalidToken
		}
		return unavailable(err)
	}

	return nil
}

func (s *sessionIssuer) parse(token, secret, tokenType string) (*authtypes.JWTClaims, error) {
	var claims authtypes.JWTClaims
	if _, err := s.jwtAuth.ValidateTokenWithClaims(token, secret, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType || claims.UserID == "" || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}

func (s *sessionIssuer) generateTokens(userID, sessionID string, role model.Role) (*authtypes.Tokens, error) {
	now := s.clock.Now()
	accessExpiresAt := now.Add(s.tokenCfg.AccessTokenExpiresIn)
	refreshExpiresAt := now.Add(s.tokenCfg.RefreshTokenExpiresIn)

	accessToken, err := s.generateToken(userID, sessionID, role, authtypes.TokenTypeAccess,
		s.tokenCfg.AccessTokenSecret, now, accessExpiresAt)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateToken(userID, sessionID, role, authtypes.TokenTypeRefresh,
		s.tokenCfg.RefreshTokenSecret, now, refreshExpiresAt)
	if err != nil {
		return nil, err
	}

	return &authtypes.Tokens{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  accessExpiresAt,
		RefreshTokenExpiresAt: refreshExpiresAt,
	}, nil
}

func (s *sessionIssuer) generateToken(
	userID, sessionID string,
	role model.Role,
	tokenType, secret string,
	issuedAt, expiresAt time.Time,
) (string, error) {
	claims := authtypes.JWTClaims{
		UserID:    userID,
		SessionID: sessionID,
		Role:      string(role),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			Issuer:    s.jwtAuth.Issuer(),
			Audience:  jwt.ClaimStrings{s.jwtAuth.Audience()},
		},
	}

	return s.jwtAuth.GenerateToken(claims, secret)
}
