package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/vanshika/finadvisor/backend/internal/domain"
	"github.com/vanshika/finadvisor/backend/internal/service"
)

// Account is a registration request in the same shape the register endpoint
// accepts.
type Account struct {
	Email            string              `json:"email"`
	Password         string              `json:"password"`
	FinancialProfile domain.ProfilePatch `json:"financialProfile"`
}

// RegisterInput converts the account for service.AccountService.Register.
func (a Account) RegisterInput() service.RegisterInput {
	return service.RegisterInput{
		Email:    a.Email,
		Password: a.Password,
		Profile:  a.FinancialProfile,
	}
}

// Generator produces plausible demo accounts with varied financial profiles.
type Generator struct {
	cfg           Config
	rand          *rand.Rand
	nameFragments nameFragments
	emails        []string
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	defaults := DefaultConfig()
	if cfg.NumAccounts <= 0 {
		cfg.NumAccounts = defaults.NumAccounts
	}
	if cfg.DuplicateChance < 0 {
		cfg.DuplicateChance = 0
	}
	if len(cfg.Password) < domain.MinPasswordLength {
		cfg.Password = defaults.Password
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:           cfg,
		rand:          rand.New(rand.NewSource(cfg.Seed)),
		nameFragments: defaultNameFragments(),
	}
}

// Generate synthesises accounts. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) ([]Account, error) {
	accounts := make([]Account, g.cfg.NumAccounts)
	for i := range accounts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		accounts[i] = Account{
			Email:            g.maybeDuplicateEmail(i),
			Password:         g.cfg.Password,
			FinancialProfile: g.randomProfile(),
		}
	}
	return accounts, nil
}

func (g *Generator) maybeDuplicateEmail(idx int) string {
	if len(g.emails) > 0 && g.rand.Float64() < g.cfg.DuplicateChance {
		return g.emails[g.rand.Intn(len(g.emails))]
	}
	email := g.randomEmail(idx)
	g.emails = append(g.emails, email)
	return email
}

func (g *Generator) randomEmail(idx int) string {
	first := g.nameFragments.first[g.rand.Intn(len(g.nameFragments.first))]
	last := g.nameFragments.last[g.rand.Intn(len(g.nameFragments.last))]
	host := g.nameFragments.domains[g.rand.Intn(len(g.nameFragments.domains))]
	return strings.ToLower(fmt.Sprintf("%s.%s%d@%s", first, last, idx+1, host))
}

func (g *Generator) randomProfile() domain.ProfilePatch {
	income := g.roundedAmount(2000, 15000, 50)
	creditScore := domain.MinCreditScore + g.rand.Intn(domain.MaxCreditScore-domain.MinCreditScore+1)
	currentAge := 22 + g.rand.Intn(39)
	targetAge := currentAge + 5 + g.rand.Intn(70-currentAge)
	risk := g.randomRisk()

	patch := domain.ProfilePatch{
		CreditScore:    &creditScore,
		MonthlyIncome:  &income,
		CurrentSavings: ptr(g.roundedAmount(0, income*12, 100)),
		CurrentInvestments: &domain.InvestmentsPatch{
			Stocks:     ptr(g.roundedAmount(0, income*24, 100)),
			Bonds:      ptr(g.roundedAmount(0, income*12, 100)),
			RealEstate: ptr(g.maybeZero(0.7, income*60)),
			Other:      ptr(g.roundedAmount(0, income*6, 100)),
		},
		RetirementGoals: &domain.RetirementGoalsPatch{
			CurrentAge:    &currentAge,
			TargetAge:     &targetAge,
			RiskTolerance: &risk,
		},
	}
	if g.rand.Float64() < 0.5 {
		patch.RetirementGoals.MonthlyRetirementIncome = ptr(g.roundedAmount(income*0.5, income, 50))
	}
	return patch
}

func (g *Generator) randomRisk() domain.RiskTolerance {
	levels := []domain.RiskTolerance{domain.RiskConservative, domain.RiskModerate, domain.RiskAggressive}
	return levels[g.rand.Intn(len(levels))]
}

// roundedAmount returns a value in [lo, hi] rounded down to a multiple of step.
func (g *Generator) roundedAmount(lo, hi, step float64) float64 {
	v := lo + g.rand.Float64()*(hi-lo)
	return float64(int64(v/step)) * step
}

// maybeZero returns 0 with probability zeroChance, otherwise an amount up to hi.
func (g *Generator) maybeZero(zeroChance, hi float64) float64 {
	if g.rand.Float64() < zeroChance {
		return 0
	}
	return g.roundedAmount(0, hi, 1000)
}

func ptr[T any](v T) *T { return &v }

type nameFragments struct {
	first   []string
	last    []string
	domains []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:   []string{"Jane", "John", "Alex", "Priya", "Liu", "Maria", "Omar", "Sofia", "Noah", "Emma", "Lucas", "Mia", "Ava", "Ethan", "Zara"},
		last:    []string{"Doe", "Smith", "Chen", "Patel", "Garcia", "Khan", "Kim", "Ivanov", "Nguyen", "Silva", "Brown", "Lee"},
		domains: []string{"example.com", "mail.com", "finadvisor.dev", "budget.net", "savers.org"},
	}
}
