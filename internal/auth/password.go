package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/vanshika/finadvisor/backend/internal/domain"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost int
	// decoy is compared against when the account does not exist so that
	// unknown-email logins take as long as bad-password logins.
	decoy []byte
}

// NewHasher builds a Hasher. Costs outside bcrypt's range select DefaultCost.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	decoy, err := bcrypt.GenerateFromPassword([]byte("decoy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("generate decoy hash: %w", err)
	}
	return &Hasher{cost: cost, decoy: decoy}, nil
}

// Hash returns the salted bcrypt hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", domain.Invalid("password", "must be at most %d bytes", domain.MaxPasswordBytes)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Compare checks password against hash. Every failure is reported as
// domain.ErrUnauthorized; a malformed stored hash is wrapped alongside it so
// callers can log the cause.
func (h *Hasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return domain.ErrUnauthorized
	default:
		return fmt.Errorf("%w: compare password: %w", domain.ErrUnauthorized, err)
	}
}

// CompareDecoy burns the same work as Compare without a real hash.
func (h *Hasher) CompareDecoy(password string) {
	_ = bcrypt.CompareHashAndPassword(h.decoy, []byte(password))
}
