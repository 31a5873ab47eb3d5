package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vanshika/finadvisor/backend/internal/domain"
)

// MemoryStore keeps accounts in process memory. It backs local development
// and tests; contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]domain.Account
	byEmail map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]domain.Account),
		byEmail: make(map[string]string),
	}
}

// FindByEmail returns a copy of the account registered under email.
func (s *MemoryStore) FindByEmail(_ context.Context, email string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return cloneAccount(s.byID[id]), nil
}

// FindByID returns a copy of the account with the given id.
func (s *MemoryStore) FindByID(_ context.Context, id string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.byID[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

// Create stores account, assigning an id when it has none. A taken email
// yields domain.ErrEmailTaken.
func (s *MemoryStore) Create(_ context.Context, account domain.Account) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[account.Email]; exists {
		return domain.Account{}, domain.ErrEmailTaken
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account = cloneAccount(account)
	s.byID[account.ID] = account
	s.byEmail[account.Email] = account.ID
	return cloneAccount(account), nil
}

// Update replaces the profile, settings and update timestamp of an account.
func (s *MemoryStore) Update(_ context.Context, account domain.Account) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[account.ID]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	stored.Profile = account.Profile
	stored.Settings = account.Settings
	stored.UpdatedAt = account.UpdatedAt
	stored = cloneAccount(stored)
	s.byID[stored.ID] = stored
	return cloneAccount(stored), nil
}

// Delete removes an account. The HTTP API never deletes accounts; this exists
// for administrative tooling and tests.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, account.Email)
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// cloneAccount copies the optional profile fields so stored state never
// shares pointers with callers.
func cloneAccount(a domain.Account) domain.Account {
	p := &a.Profile
	p.CreditScore = clonePtr(p.CreditScore)
	p.RetirementGoals.CurrentAge = clonePtr(p.RetirementGoals.CurrentAge)
	p.RetirementGoals.TargetAge = clonePtr(p.RetirementGoals.TargetAge)
	p.RetirementGoals.MonthlyRetirementIncome = clonePtr(p.RetirementGoals.MonthlyRetirementIncome)
	return a
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
