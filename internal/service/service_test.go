package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vanshika/finadvisor/backend/internal/auth"
	"github.com/vanshika/finadvisor/backend/internal/domain"
	"github.com/vanshika/finadvisor/backend/internal/repository"
)

var fixedNow = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }

type fixture struct {
	store    *repository.MemoryStore
	issuer   *auth.Issuer
	accounts *AccountService
	profiles *ProfileService
	settings *SettingsService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	hasher, err := auth.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	issuer, err := auth.NewIssuer("service-test-secret", 24*time.Hour)
	require.NoError(t, err)

	accounts := NewAccountService(store, hasher, issuer)
	accounts.WithClock(func() time.Time { return fixedNow })
	profiles := NewProfileService(store)
	profiles.WithClock(func() time.Time { return fixedNow.Add(time.Hour) })
	settings := NewSettingsService(store)

	return fixture{store: store, issuer: issuer, accounts: accounts, profiles: profiles, settings: settings}
}

func (f fixture) register(t *testing.T, email string) Session {
	t.Helper()
	session, err := f.accounts.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: "correct horse",
		Profile: domain.ProfilePatch{
			CreditScore:    intPtr(750),
			MonthlyIncome:  floatPtr(5000),
			CurrentSavings: floatPtr(10000),
			CurrentInvestments: &domain.InvestmentsPatch{
				Stocks: floatPtr(5000), Bonds: floatPtr(3000), RealEstate: floatPtr(0), Other: floatPtr(2000),
			},
			RetirementGoals: &domain.RetirementGoalsPatch{CurrentAge: intPtr(30), TargetAge: intPtr(65)},
		},
	})
	require.NoError(t, err)
	return session
}

func TestAccountService_Register(t *testing.T) {
	f := newFixture(t)
	session := f.register(t, "  Jane@Example.com ")

	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "jane@example.com", session.Account.Email)
	assert.NotEqual(t, "correct horse", session.Account.PasswordHash)
	assert.Equal(t, fixedNow, session.Account.CreatedAt)
	assert.Equal(t, domain.DefaultSettings(), session.Account.Settings)
	assert.Equal(t, domain.RiskModerate, session.Account.Profile.RetirementGoals.RiskTolerance)

	id, err := f.issuer.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Account.ID, id)
}

func TestAccountService_RegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "jane@example.com")

	for _, password := range []string{"correct horse", "another password"} {
		_, err := f.accounts.Register(context.Background(), RegisterInput{
			Email:    "JANE@example.com",
			Password: password,
		})
		require.ErrorIs(t, err, domain.ErrConflict)
	}
}

func TestAccountService_RegisterValidation(t *testing.T) {
	f := newFixture(t)
	cases := []RegisterInput{
		{Email: "", Password: "correct horse"},
		{Email: "not-an-email", Password: "correct horse"},
		{Email: "jane@example.com", Password: "short"},
		{Email: "jane@example.com", Password: "correct horse", Profile: domain.ProfilePatch{CreditScore: intPtr(900)}},
		{Email: "jane@example.com", Password: "correct horse", Profile: domain.ProfilePatch{MonthlyIncome: floatPtr(-1)}},
	}
	for _, in := range cases {
		_, err := f.accounts.Register(context.Background(), in)
		require.ErrorIs(t, err, domain.ErrInvalidArgument, "input %+v", in)
	}
}

func TestAccountService_LoginErrorsAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.register(t, "jane@example.com")

	_, wrongPassword := f.accounts.Login(context.Background(), "jane@example.com", "wrong password")
	_, unknownEmail := f.accounts.Login(context.Background(), "nobody@example.com", "correct horse")

	require.ErrorIs(t, wrongPassword, domain.ErrUnauthorized)
	require.ErrorIs(t, unknownEmail, domain.ErrUnauthorized)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	session, err := f.accounts.Login(context.Background(), "JANE@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
}

func TestAccountService_CurrentAccountAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	session := f.register(t, "jane@example.com")
	ctx := context.Background()

	account, err := f.accounts.CurrentAccount(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Account.ID, account.ID)

	id, err := f.accounts.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Account.ID, id)

	_, err = f.accounts.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	require.NoError(t, f.store.Delete(ctx, session.Account.ID))

	_, err = f.accounts.CurrentAccount(ctx, session.Token)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.accounts.Authenticate(ctx, session.Token)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

type failingRepo struct {
	AccountRepository
	err error
}

func (r failingRepo) FindByEmail(context.Context, string) (domain.Account, error) {
	return domain.Account{}, r.err
}

func (r failingRepo) FindByID(context.Context, string) (domain.Account, error) {
	return domain.Account{}, r.err
}

func TestAccountService_StoreFailuresPropagate(t *testing.T) {
	boom := errors.New("store unavailable")
	hasher, err := auth.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	issuer, err := auth.NewIssuer("secret", time.Hour)
	require.NoError(t, err)
	svc := NewAccountService(failingRepo{err: boom}, hasher, issuer)

	_, err = svc.Login(context.Background(), "jane@example.com", "correct horse")
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "jane@example.com", Password: "correct horse"})
	require.ErrorIs(t, err, boom)

	token, _, err := issuer.Issue("acct-1")
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), token)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestProfileService_GetAndUpdate(t *testing.T) {
	f := newFixture(t)
	id := f.register(t, "jane@example.com").Account.ID
	ctx := context.Background()

	profile, err := f.profiles.Profile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, profile.CurrentInvestments.Total())
	assert.Equal(t, 20000.0, profile.CurrentInvestments.Total()+profile.CurrentSavings)

	patch := domain.ProfilePatch{
		MonthlyIncome:      floatPtr(6000),
		CurrentInvestments: &domain.InvestmentsPatch{RealEstate: floatPtr(2500)},
	}
	once, err := f.profiles.UpdateProfile(ctx, id, patch)
	require.NoError(t, err)
	assert.Equal(t, 6000.0, once.MonthlyIncome)
	assert.Equal(t, 5000.0, once.CurrentInvestments.Stocks)
	assert.Equal(t, 2500.0, once.CurrentInvestments.RealEstate)
	assert.Equal(t, 750, *once.CreditScore)

	twice, err := f.profiles.UpdateProfile(ctx, id, patch)
	require.NoError(t, err)
	assert.Equal(t, once, twice)

	stored, err := f.store.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(time.Hour), stored.UpdatedAt)
}

func TestProfileService_UpdateRejectsInvalid(t *testing.T) {
	f := newFixture(t)
	id := f.register(t, "jane@example.com").Account.ID
	ctx := context.Background()

	cases := []domain.ProfilePatch{
		{CreditScore: intPtr(200)},
		{CurrentSavings: floatPtr(-10)},
		{RetirementGoals: &domain.RetirementGoalsPatch{CurrentAge: intPtr(65)}},
		{RetirementGoals: &domain.RetirementGoalsPatch{TargetAge: intPtr(25)}},
	}
	for _, patch := range cases {
		_, err := f.profiles.UpdateProfile(ctx, id, patch)
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
	}

	profile, err := f.profiles.Profile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 750, *profile.CreditScore, "rejected updates must not persist")
}

func TestProfileService_MissingAccount(t *testing.T) {
	f := newFixture(t)
	_, err := f.profiles.Profile(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.profiles.UpdateProfile(context.Background(), "missing", domain.ProfilePatch{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProfileService_RetirementGoalsAndAdvice(t *testing.T) {
	f := newFixture(t)
	id := f.register(t, "jane@example.com").Account.ID
	ctx := context.Background()

	risk := domain.RiskTolerance("medium")
	goals, err := f.profiles.UpdateRetirementGoals(ctx, id, domain.RetirementGoalsPatch{RiskTolerance: &risk})
	require.NoError(t, err)
	assert.Equal(t, domain.RiskModerate, goals.RiskTolerance)
	assert.Equal(t, 65, *goals.TargetAge)

	analysis, err := f.profiles.RetirementAdvice(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, analysis.TotalInvestments)
	assert.Equal(t, 20000.0, analysis.CurrentTotal)
	assert.Equal(t, 35, analysis.YearsUntilRetirement)
	assert.Equal(t, "Balanced portfolio: 50% stocks, 40% bonds, 10% alternative investments", analysis.InvestmentAdvice)
	assert.Len(t, analysis.Recommendations, 4)
}

func TestProfileService_Project(t *testing.T) {
	f := newFixture(t)
	id := f.register(t, "jane@example.com").Account.ID
	ctx := context.Background()

	p, err := f.profiles.Project(ctx, id, ProjectionInput{})
	require.NoError(t, err)
	assert.Equal(t, 30, p.CurrentAge)
	assert.Equal(t, 65, p.RetirementAge)
	assert.Equal(t, DefaultMonthlyContribution, p.MonthlyContribution)
	assert.Equal(t, domain.RiskModerate, p.RiskLevel)
	assert.Equal(t, 0.006, p.MonthlyRate)
	assert.Equal(t, int64(950281), p.ProjectedTotal)

	high := domain.RiskTolerance("high")
	p, err = f.profiles.Project(ctx, id, ProjectionInput{RetirementAge: intPtr(31), MonthlyContribution: floatPtr(100), RiskLevel: &high})
	require.NoError(t, err)
	assert.Equal(t, domain.RiskAggressive, p.RiskLevel)
	assert.Equal(t, int64(1264), p.ProjectedTotal)

	_, err = f.profiles.Project(ctx, id, ProjectionInput{RetirementAge: intPtr(30)})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.profiles.Project(ctx, id, ProjectionInput{MonthlyContribution: floatPtr(-5)})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSettingsService_RoundTrip(t *testing.T) {
	f := newFixture(t)
	id := f.register(t, "jane@example.com").Account.ID
	ctx := context.Background()

	before, err := f.settings.Settings(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), before)

	_, err = f.settings.UpdateSettings(ctx, id, domain.SettingsPatch{DarkMode: boolPtr(true)})
	require.NoError(t, err)

	after, err := f.settings.Settings(ctx, id)
	require.NoError(t, err)
	assert.True(t, after.DarkMode)
	assert.Equal(t, before.EmailNotifications, after.EmailNotifications)
	assert.Equal(t, before.TwoFactorAuth, after.TwoFactorAuth)
	assert.Equal(t, before.MarketingEmails, after.MarketingEmails)

	_, err = f.settings.Settings(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
