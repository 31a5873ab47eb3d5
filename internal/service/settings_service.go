package service

import (
	"context"
	"time"

	"github.com/vanshika/finadvisor/backend/internal/domain"
)

// SettingsService reads and merges account preferences.
type SettingsService struct {
	repo  AccountRepository
	nowFn func() time.Time
}

// NewSettingsService wires a SettingsService.
func NewSettingsService(repo AccountRepository) *SettingsService {
	return &SettingsService{repo: repo, nowFn: time.Now}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *SettingsService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Settings returns the stored settings of an account.
func (s *SettingsService) Settings(ctx context.Context, accountID string) (domain.Settings, error) {
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return domain.Settings{}, err
	}
	return account.Settings, nil
}

// UpdateSettings merges patch over the stored settings; unspecified fields
// keep their previous values.
func (s *SettingsService) UpdateSettings(ctx context.Context, accountID string, patch domain.SettingsPatch) (domain.Settings, error) {
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return domain.Settings{}, err
	}
	account.Settings = patch.Apply(account.Settings)
	account.UpdatedAt = s.nowFn().UTC()

	saved, err := s.repo.Update(ctx, account)
	if err != nil {
		return domain.Settings{}, err
	}
	return saved.Settings, nil
}
