package mocks

import (
	"context"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/usecase"
)

// MockIssueLimiter implements usecase.IssueLimiter; it allows everything by default.
type MockIssueLimiter struct {
	AllowFunc func(ctx context.Context, email string, purpose model.OTPPurpose) error
	Calls     int
}

func (m *MockIssueLimiter) Allow(ctx context.Context, email string, purpose model.OTPPurpose) error {
	m.Calls++
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, email, purpose)
	}
	return nil
}

// Compile-time interface compliance verification
var _ usecase.IssueLimiter = (*MockIssueLimiter)(nil)
