package mocks

import (
	"context"
	"sync"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/notifier"
)

// SentCode is a code handed to MockNotifier.
type SentCode struct {
	Email   string
	Code    string
	Purpose model.OTPPurpose
}

// MockNotifier implements notifier.Notifier and records every code it is given,
// including the ones for which SendFunc returns an error.
type MockNotifier struct {
	SendFunc func(ctx context.Context, email, code string, purpose model.OTPPurpose) error

	mu   sync.Mutex
	sent []SentCode
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Send(ctx context.Context, email, code string, purpose model.OTPPurpose) error {
	m.mu.Lock()
	m.sent = append(m.sent, SentCode{Email: email, Code: code, Purpose: purpose})
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, email, code, purpose)
	}
	return nil
}

// Sent returns a copy of the recorded codes.
func (m *MockNotifier) Sent() []SentCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentCode(nil), m.sent...)
}

// Last returns the most recent code sent to email, if any.
func (m *MockNotifier) Last(email string) (SentCode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Email == email {
			return m.sent[i], true
		}
	}
	return SentCode{}, false
}

// Compile-time interface compliance verification
var _ notifier.Notifier = (*MockNotifier)(nil)
