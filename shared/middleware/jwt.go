package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey struct{}

var claimsKey = contextKey{}

var (
	ErrMissingAuthorization = errors.New("missing authorization header")
	ErrMalformedBearer      = errors.New("invalid authorization header format")
)

// VerifyFunc validates a raw bearer token and returns its claims.
type VerifyFunc[C jwt.Claims] func(token string) (C, error)

// ErrorFunc writes the response for a rejected request.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// NewJWTMiddleware authenticates requests carrying an `Authorization: Bearer` header
// and stores the verified claims in the request context.
func NewJWTMiddleware[C jwt.Claims](verify VerifyFunc[C], onError ErrorFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := extractBearerToken(r)
			if err != nil {
				onError(w, r, err)
				return
			}

			claims, err := verify(tokenString)
			if err != nil {
				onError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by NewJWTMiddleware.
func ClaimsFromContext[C jwt.Claims](ctx context.Context) (C, bool) {
	claims, ok := ctx.Value(claimsKey).(C)
	return claims, ok
}

func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthorization
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", ErrMalformedBearer
	}

	return strings.TrimSpace(parts[1]), nil
}
