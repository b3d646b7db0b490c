package mocks

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/repository"
)

// MockAccountRepository implements repository.AccountRepository for testing.
// Without overrides it behaves like an in-memory store with unique email and handle.
type MockAccountRepository struct {
	CreateAccountFunc     func(ctx context.Context, account *model.Account) (*model.Account, error)
	GetAccountFunc        func(ctx context.Context, id string) (*model.Account, error)
	GetAccountByEmailFunc func(ctx context.Context, email string) (*model.Account, error)
	UpdateAccountFunc     func(ctx context.Context, id string, params repository.UpdateAccountParams) (*model.Account, error)

	mu       sync.Mutex
	accounts map[string]*model.Account
}

// NewMockAccountRepository creates a new MockAccountRepository with default behaviors
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{accounts: make(map[string]*model.Account)}
}

// Seed stores an account directly and returns it with an ID assigned.
func (m *MockAccountRepository) Seed(account *model.Account) *model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()

	if account.ID.IsZero() {
		account.ID = bson.NewObjectID()
	}
	account.Email = model.NormalizeEmail(account.Email)
	m.accounts[account.ID.Hex()] = account
	return account
}

// Count returns how many accounts are stored.
func (m *MockAccountRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

func (m *MockAccountRepository) CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	if m.CreateAccountFunc != nil {
		return m.CreateAccountFunc(ctx, account)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	account.Email = model.NormalizeEmail(account.Email)
	for _, existing := range m.accounts {
		if existing.Email == account.Email || existing.Handle == account.Handle {
			return nil, repository.ErrAccountConflict
		}
	}

	now := time.Now().UTC()
	account.ID = bson.NewObjectID()
	account.CreatedAt = now
	account.UpdatedAt = now
	m.accounts[account.ID.Hex()] = account

	return account, nil
}

func (m *MockAccountRepository) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	if m.GetAccountFunc != nil {
		return m.GetAccountFunc(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return account, nil
}

func (m *MockAccountRepository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	if m.GetAccountByEmailFunc != nil {
		return m.GetAccountByEmailFunc(ctx, email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	email = model.NormalizeEmail(email)
	for _, account := range m.accounts {
		if account.Email == email {
			return account, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (m *MockAccountRepository) UpdateAccount(
	ctx context.Context,
	id string,
	params repository.UpdateAccountParams,
) (*model.Account, error) {
	if m.UpdateAccountFunc != nil {
		return m.UpdateAccountFunc(ctx, id, params)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	if params.PasswordHash != nil {
		account.PasswordHash = *params.PasswordHash
	}
	if params.Active != nil {
		account.Active = *params.Active
	}
	account.UpdatedAt = time.Now().UTC()

	return account, nil
}

// Compile-time interface compliance verification
var _ repository.AccountRepository = (*MockAccountRepository)(nil)
