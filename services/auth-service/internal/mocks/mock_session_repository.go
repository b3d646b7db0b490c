package mocks

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/repository"
)

// MockSessionRepository implements repository.SessionRepository in memory.
type MockSessionRepository struct {
	CreateSessionFunc func(ctx context.Context, session *model.Session) (*model.Session, error)

	mu       sync.Mutex
	sessions map[string]model.Session
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{sessions: make(map[string]model.Session)}
}

// Len returns how many sessions are stored.
func (m *MockSessionRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MockSessionRepository) CreateSession(ctx context.Context, session *model.Session) (*model.Session, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, session)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if session.ID.IsZero() {
		session.ID = bson.NewObjectID()
	}
	m.sessions[session.ID.Hex()] = *session
	return session, nil
}

func (m *MockSessionRepository) GetSession(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return &session, nil
}

func (m *MockSessionRepository) RotateRefreshToken(
	_ context.Context,
	id string,
	currentHash string,
	params repository.RotateRefreshTokenParams,
) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok || session.RefreshTokenHash != currentHash {
		return nil, repository.ErrSessionNotFound
	}
	session.RefreshTokenHash = params.RefreshTokenHash
	session.AccessTokenExpiresAt = params.AccessTokenExpiresAt
	session.RefreshTokenExpiresAt = params.RefreshTokenExpiresAt
	m.sessions[id] = session
	return &session, nil
}

func (m *MockSessionRepository) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Compile-time interface compliance verification
var _ repository.SessionRepository = (*MockSessionRepository)(nil)
