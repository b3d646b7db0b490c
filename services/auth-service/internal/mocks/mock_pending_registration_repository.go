package mocks

import (
	"context"
	"sync"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/tezrent-api/shared/clock"
)

// MockPendingRegistrationRepository implements repository.PendingRegistrationRepository
// in memory, honoring expiry against the given clock.
type MockPendingRegistrationRepository struct {
	PutFunc     func(ctx context.Context, registration *model.PendingRegistration) (bool, error)
	GetFunc     func(ctx context.Context, email string) (*model.PendingRegistration, error)
	ConsumeFunc func(ctx context.Context, email string) error

	clock   clock.Clock
	mu      sync.Mutex
	records map[string]model.PendingRegistration
}

func NewMockPendingRegistrationRepository(clk clock.Clock) *MockPendingRegistrationRepository {
	return &MockPendingRegistrationRepository{
		clock:   clk,
		records: make(map[string]model.PendingRegistration),
	}
}

func (m *MockPendingRegistrationRepository) Put(
	ctx context.Context,
	registration *model.PendingRegistration,
) (bool, error) {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, registration)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	email := model.NormalizeEmail(registration.Email)
	prior, ok := m.records[email]
	m.records[email] = *registration

	return ok && prior.ExpiresAt.After(m.clock.Now()), nil
}

func (m *MockPendingRegistrationRepository) Get(ctx context.Context, email string) (*model.PendingRegistration, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[model.NormalizeEmail(email)]
	if !ok || !record.ExpiresAt.After(m.clock.Now()) {
		return nil, repository.ErrPendingRegistrationNotFound
	}
	return &record, nil
}

func (m *MockPendingRegistrationRepository) Consume(ctx context.Context, email string) error {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	email = model.NormalizeEmail(email)
	record, ok := m.records[email]
	if !ok || !record.ExpiresAt.After(m.clock.Now()) {
		return repository.ErrPendingRegistrationNotFound
	}
	delete(m.records, email)
	return nil
}

// Compile-time interface compliance verification
var _ repository.PendingRegistrationRepository = (*MockPendingRegistrationRepository)(nil)
