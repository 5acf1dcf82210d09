package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/krishi-auth/pkg/domain"
)

// MemoryAccounts is an in-process account store for development servers and tests.
// Accounts are copied on the way in and out so callers never share state with the store.
type MemoryAccounts struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*domain.Account
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

// MemoryOption configures a MemoryAccounts store.
type MemoryOption func(*MemoryAccounts)

// WithClock sets the clock used to stamp UpdatedAt.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryAccounts) { m.now = now }
}

// NewMemoryAccounts creates an empty in-memory account store.
func NewMemoryAccounts(opts ...MemoryOption) *MemoryAccounts {
	m := &MemoryAccounts{
		byID:    make(map[uuid.UUID]*domain.Account),
		byEmail: make(map[string]uuid.UUID),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create inserts a new account. The email check and insert happen under one lock.
func (m *MemoryAccounts) Create(_ context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[account.Email]; ok {
		return domain.ErrAccountExists
	}
	m.byID[account.ID] = account.Clone()
	m.byEmail[account.Email] = account.ID
	return nil
}

// GetByID retrieves an account by ID.
func (m *MemoryAccounts) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return a.Clone(), nil
}

// GetByEmail retrieves an account by exact email.
func (m *MemoryAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return m.byID[id].Clone(), nil
}

// Update replaces the stored account.
func (m *MemoryAccounts) Update(_ context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[account.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if existing.Email != account.Email {
		if _, taken := m.byEmail[account.Email]; taken {
			return domain.ErrAccountExists
		}
		delete(m.byEmail, existing.Email)
		m.byEmail[account.Email] = account.ID
	}
	account.UpdatedAt = m.now()
	m.byID[account.ID] = account.Clone()
	return nil
}

// Len returns the number of stored accounts.
func (m *MemoryAccounts) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}
