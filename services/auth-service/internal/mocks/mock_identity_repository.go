package mocks

import (
	"context"
	"sync"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/repository"
)

// MockIdentityRepository implements repository.IdentityRepository for testing
type MockIdentityRepository struct {
	RecordLoginFunc           func(ctx context.Context, userID, provider, email string) (*model.Identity, error)
	GetIdentitiesByUserIDFunc func(ctx context.Context, userID string) ([]model.Identity, error)

	mu     sync.Mutex
	Logins []model.Identity
}

func NewMockIdentityRepository() *MockIdentityRepository {
	return &MockIdentityRepository{}
}

func (m *MockIdentityRepository) RecordLogin(ctx context.Context, userID, provider, email string) (*model.Identity, error) {
	if m.RecordLoginFunc != nil {
		return m.RecordLoginFunc(ctx, userID, provider, email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	identity := model.Identity{UserID: userID, Provider: provider, Email: email}
	m.Logins = append(m.Logins, identity)
	return &identity, nil
}

func (m *MockIdentityRepository) GetIdentitiesByUserID(ctx context.Context, userID string) ([]model.Identity, error) {
	if m.GetIdentitiesByUserIDFunc != nil {
		return m.GetIdentitiesByUserIDFunc(ctx, userID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool)
	var identities []model.Identity
	for _, identity := range m.Logins {
		if identity.UserID == userID && !seen[identity.Provider] {
			seen[identity.Provider] = true
			identities = append(identities, identity)
		}
	}
	return identities, nil
}

// Compile-time interface compliance verification
var _ repository.IdentityRepository = (*MockIdentityRepository)(nil)
