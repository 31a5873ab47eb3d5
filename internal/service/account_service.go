package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vanshika/finadvisor/backend/internal/domain"
)

// AccountRepository is the storage contract shared by the account, profile
// and settings services.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (domain.Account, error)
	FindByID(ctx context.Context, id string) (domain.Account, error)
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	Update(ctx context.Context, account domain.Account) (domain.Account, error)
}

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
	CompareDecoy(password string)
}

// SessionIssuer mints and verifies bearer tokens.
type SessionIssuer interface {
	Issue(accountID string) (string, time.Time, error)
	Verify(token string) (string, error)
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	Email    string
	Password string
	Profile  domain.ProfilePatch
}

// Session is the outcome of a successful registration or login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   domain.Account
}

// AccountService handles registration, login and session resolution.
type AccountService struct {
	repo     AccountRepository
	hasher   PasswordHasher
	sessions SessionIssuer
	nowFn    func() time.Time
}

// NewAccountService wires an AccountService.
func NewAccountService(repo AccountRepository, hasher PasswordHasher, sessions SessionIssuer) *AccountService {
	return &AccountService{
		repo:     repo,
		hasher:   hasher,
		sessions: sessions,
		nowFn:    time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *AccountService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Register creates an account and signs the caller in. A registered email
// fails with domain.ErrConflict whatever the password.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	email := domain.NormalizeEmail(in.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return Session{}, err
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return Session{}, err
	}
	profile := in.Profile.Profile()
	if err := profile.Validate(); err != nil {
		return Session{}, err
	}

	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return Session{}, domain.ErrEmailTaken
	case !errors.Is(err, domain.ErrNotFound):
		return Session{}, fmt.Errorf("check existing account: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, err
	}

	now := s.nowFn().UTC()
	account, err := s.repo.Create(ctx, domain.Account{
		Email:        email,
		PasswordHash: hash,
		Profile:      profile,
		Settings:     domain.DefaultSettings(),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("create account: %w", err)
	}
	return s.issue(account)
}

// Login verifies credentials. Unknown emails and wrong passwords both fail
// with domain.ErrUnauthorized.
func (s *AccountService) Login(ctx context.Context, email, password string) (Session, error) {
	account, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		s.hasher.CompareDecoy(password)
		return Session{}, domain.ErrUnauthorized
	}
	if err != nil {
		return Session{}, fmt.Errorf("find account: %w", err)
	}
	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		return Session{}, err
	}
	return s.issue(account)
}

// CurrentAccount resolves the account behind a session token. A token whose
// account no longer exists fails with domain.ErrNotFound.
func (s *AccountService) CurrentAccount(ctx context.Context, token string) (domain.Account, error) {
	id, err := s.sessions.Verify(token)
	if err != nil {
		return domain.Account{}, err
	}
	return s.repo.FindByID(ctx, id)
}

// Authenticate resolves token to an account id for the request gate. It
// fails closed: a missing account is reported as domain.ErrUnauthenticated.
func (s *AccountService) Authenticate(ctx context.Context, token string) (string, error) {
	id, err := s.sessions.Verify(token)
	if err != nil {
		return "", err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("account %s no longer exists: %w", id, domain.ErrUnauthenticated)
		}
		return "", err
	}
	return id, nil
}

func (s *AccountService) issue(account domain.Account) (Session, error) {
	token, expiresAt, err := s.sessions.Issue(account.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue session: %w", err)
	}
	return Session{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}
