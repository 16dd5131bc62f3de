package mocks

import (
	"context"
	"sync"

	"github.com/you/uploaddoc/domain"
)

// MockSessionStore implements domain.SessionStore for testing. By
// default it behaves like a working in-memory store, so write-through
// assertions can read back what an operation persisted; individual
// operations can be overridden to inject failures.
type MockSessionStore struct {
	SaveTokenFunc     func(ctx context.Context, token string) error
	SaveUserFunc      func(ctx context.Context, user *domain.User) error
	ClearAuthDataFunc func(ctx context.Context) error

	mu         sync.Mutex
	token      string
	hasToken   bool
	user       *domain.User
	email      string
	hasEmail   bool
	ClearCalls int
}

// NewMockSessionStore creates an empty in-memory session store
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{}
}

// Seed pre-populates the store, as if a previous session had persisted it
func (m *MockSessionStore) Seed(token string, user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.hasToken = token != ""
	m.user = user
}

// SaveToken stores a token
func (m *MockSessionStore) SaveToken(ctx context.Context, token string) error {
	if m.SaveTokenFunc != nil {
		return m.SaveTokenFunc(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.hasToken = true
	return nil
}

// Token returns the stored token
func (m *MockSessionStore) Token(ctx context.Context) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.hasToken
}

// RemoveToken removes the stored token
func (m *MockSessionStore) RemoveToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.hasToken = false
	return nil
}

// SaveUser stores a user snapshot
func (m *MockSessionStore) SaveUser(ctx context.Context, user *domain.User) error {
	if m.SaveUserFunc != nil {
		return m.SaveUserFunc(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = user
	return nil
}

// User returns the stored user snapshot
func (m *MockSessionStore) User(ctx context.Context) (*domain.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user, m.user != nil
}

// RemoveUser removes the stored user snapshot
func (m *MockSessionStore) RemoveUser(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
	return nil
}

// SaveRememberedEmail stores the remembered email
func (m *MockSessionStore) SaveRememberedEmail(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.email = email
	m.hasEmail = true
	return nil
}

// RememberedEmail returns the remembered email
func (m *MockSessionStore) RememberedEmail(ctx context.Context) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.email, m.hasEmail
}

// RemoveRememberedEmail removes the remembered email
func (m *MockSessionStore) RemoveRememberedEmail(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.email = ""
	m.hasEmail = false
	return nil
}

// ClearAuthData removes token and user together
func (m *MockSessionStore) ClearAuthData(ctx context.Context) error {
	m.mu.Lock()
	m.ClearCalls++
	m.mu.Unlock()
	if m.ClearAuthDataFunc != nil {
		return m.ClearAuthDataFunc(ctx)
	}
	m.RemoveToken(ctx)
	m.RemoveUser(ctx)
	return nil
}

// HasAuthData reports whether both token and user are present
func (m *MockSessionStore) HasAuthData(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasToken && m.user != nil
}
