package service

import (
	"context"
	"time"

	"github.com/vanshika/finadvisor/backend/internal/advice"
	"github.com/vanshika/finadvisor/backend/internal/domain"
)

// DefaultMonthlyContribution is used by projections when none is supplied.
const DefaultMonthlyContribution = 500.0

// ProfileService reads and merges the financial profile of an account and
// derives retirement advice from it.
type ProfileService struct {
	repo  AccountRepository
	nowFn func() time.Time
}

// NewProfileService wires a ProfileService.
func NewProfileService(repo AccountRepository) *ProfileService {
	return &ProfileService{repo: repo, nowFn: time.Now}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *ProfileService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Profile returns the stored profile with defaults applied.
func (s *ProfileService) Profile(ctx context.Context, accountID string) (domain.FinancialProfile, error) {
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return domain.FinancialProfile{}, err
	}
	return account.Profile.WithDefaults(), nil
}

// UpdateProfile merges patch over the stored profile, validates the result
// and persists it. Concurrent updates are last-write-wins.
func (s *ProfileService) UpdateProfile(ctx context.Context, accountID string, patch domain.ProfilePatch) (domain.FinancialProfile, error) {
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return domain.FinancialProfile{}, err
	}

	merged := patch.Apply(account.Profile)
	if err := merged.Validate(); err != nil {
		return domain.FinancialProfile{}, err
	}

	account.Profile = merged
	account.UpdatedAt = s.nowFn().UTC()
	saved, err := s.repo.Update(ctx, account)
	if err != nil {
		return domain.FinancialProfile{}, err
	}
	return saved.Profile.WithDefaults(), nil
}

// RetirementGoals returns the stored retirement goals.
func (s *ProfileService) RetirementGoals(ctx context.Context, accountID string) (domain.RetirementGoals, error) {
	profile, err := s.Profile(ctx, accountID)
	if err != nil {
		return domain.RetirementGoals{}, err
	}
	return profile.RetirementGoals, nil
}

// UpdateRetirementGoals merges patch over the stored retirement goals.
func (s *ProfileService) UpdateRetirementGoals(ctx context.Context, accountID string, patch domain.RetirementGoalsPatch) (domain.RetirementGoals, error) {
	profile, err := s.UpdateProfile(ctx, accountID, domain.ProfilePatch{RetirementGoals: &patch})
	if err != nil {
		return domain.RetirementGoals{}, err
	}
	return profile.RetirementGoals, nil
}

// RetirementAdvice computes the retirement readiness report for an account.
func (s *ProfileService) RetirementAdvice(ctx context.Context, accountID string) (advice.Analysis, error) {
	profile, err := s.Profile(ctx, accountID)
	if err != nil {
		return advice.Analysis{}, err
	}
	return advice.Retirement(profile)
}

// ProjectionInput overrides the stored goals for a growth projection.
type ProjectionInput struct {
	CurrentAge          *int
	RetirementAge       *int
	MonthlyContribution *float64
	RiskLevel           *domain.RiskTolerance
}

// Projection is the resolved projection request and its result.
type Projection struct {
	CurrentAge          int                  `json:"currentAge"`
	RetirementAge       int                  `json:"retirementAge"`
	MonthlyContribution float64              `json:"monthlyContribution"`
	RiskLevel           domain.RiskTolerance `json:"riskLevel"`
	MonthlyRate         float64              `json:"monthlyRate"`
	ProjectedTotal      int64                `json:"projectedTotal"`
}

// Project runs a growth projection. Unset inputs fall back to the account's
// retirement goals and then to the package defaults.
func (s *ProfileService) Project(ctx context.Context, accountID string, in ProjectionInput) (Projection, error) {
	goals, err := s.RetirementGoals(ctx, accountID)
	if err != nil {
		return Projection{}, err
	}

	p := Projection{
		CurrentAge:          goals.CurrentAgeOrDefault(),
		RetirementAge:       goals.TargetAgeOrDefault(),
		MonthlyContribution: DefaultMonthlyContribution,
		RiskLevel:           goals.RiskTolerance.Normalize(),
	}
	if in.CurrentAge != nil {
		p.CurrentAge = *in.CurrentAge
	}
	if in.RetirementAge != nil {
		p.RetirementAge = *in.RetirementAge
	}
	if in.MonthlyContribution != nil {
		p.MonthlyContribution = *in.MonthlyContribution
	}
	if in.RiskLevel != nil {
		p.RiskLevel = in.RiskLevel.Normalize()
	}

	switch {
	case p.CurrentAge < domain.MinAge || p.CurrentAge > domain.MaxAge:
		return Projection{}, domain.Invalid("currentAge", "must be between %d and %d", domain.MinAge, domain.MaxAge)
	case p.RetirementAge < domain.MinAge || p.RetirementAge > domain.MaxAge:
		return Projection{}, domain.Invalid("retirementAge", "must be between %d and %d", domain.MinAge, domain.MaxAge)
	case p.RetirementAge <= p.CurrentAge:
		return Projection{}, domain.Invalid("retirementAge", "must be greater than currentAge")
	case p.MonthlyContribution < 0:
		return Projection{}, domain.Invalid("monthlyContribution", "must not be negative")
	case !p.RiskLevel.Valid():
		return Projection{}, domain.Invalid("riskLevel", "must be one of conservative, moderate, aggressive")
	}

	p.MonthlyRate = advice.MonthlyRate(p.RiskLevel)
	p.ProjectedTotal = advice.ProjectGrowth(p.CurrentAge, p.RetirementAge, p.MonthlyContribution, p.RiskLevel)
	return p, nil
}
