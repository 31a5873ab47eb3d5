package domain

// Range limits enforced on financial profiles.
const (
	MinCreditScore = 300
	MaxCreditScore = 850
	MinAge         = 18
	MaxAge         = 100
)

// Investments holds the balance of each investment bucket.
type Investments struct {
	Stocks     float64 `json:"stocks" bson:"stocks"`
	Bonds      float64 `json:"bonds" bson:"bonds"`
	RealEstate float64 `json:"realEstate" bson:"realEstate"`
	Other      float64 `json:"other" bson:"other"`
}

// Total sums every bucket.
func (i Investments) Total() float64 {
	return i.Stocks + i.Bonds + i.RealEstate + i.Other
}

// RetirementGoals captures the retirement planning parameters. Unset optional
// values are nil; RiskTolerance is always populated once defaults are applied.
type RetirementGoals struct {
	CurrentAge              *int          `json:"currentAge,omitempty" bson:"currentAge,omitempty"`
	TargetAge               *int          `json:"targetAge,omitempty" bson:"targetAge,omitempty"`
	MonthlyRetirementIncome *float64      `json:"monthlyRetirementIncome,omitempty" bson:"monthlyRetirementIncome,omitempty"`
	RiskTolerance           RiskTolerance `json:"riskTolerance" bson:"riskTolerance"`
}

// FinancialProfile is embedded in every account.
type FinancialProfile struct {
	CreditScore        *int            `json:"creditScore,omitempty" bson:"creditScore,omitempty"`
	MonthlyIncome      float64         `json:"monthlyIncome" bson:"monthlyIncome"`
	CurrentSavings     float64         `json:"currentSavings" bson:"currentSavings"`
	CurrentInvestments Investments     `json:"currentInvestments" bson:"currentInvestments"`
	RetirementGoals    RetirementGoals `json:"retirementGoals" bson:"retirementGoals"`
}

// WithDefaults returns a copy with the risk tolerance resolved to its
// canonical spelling.
func (p FinancialProfile) WithDefaults() FinancialProfile {
	p.RetirementGoals.RiskTolerance = p.RetirementGoals.RiskTolerance.Normalize()
	return p
}

// Validate enforces the profile range invariants.
func (p FinancialProfile) Validate() error {
	if p.CreditScore != nil && (*p.CreditScore < MinCreditScore || *p.CreditScore > MaxCreditScore) {
		return Invalid("creditScore", "must be between %d and %d", MinCreditScore, MaxCreditScore)
	}

	money := []struct {
		field string
		value float64
	}{
		{"monthlyIncome", p.MonthlyIncome},
		{"currentSavings", p.CurrentSavings},
		{"currentInvestments.stocks", p.CurrentInvestments.Stocks},
		{"currentInvestments.bonds", p.CurrentInvestments.Bonds},
		{"currentInvestments.realEstate", p.CurrentInvestments.RealEstate},
		{"currentInvestments.other", p.CurrentInvestments.Other},
	}
	for _, m := range money {
		if m.value < 0 {
			return Invalid(m.field, "must not be negative")
		}
	}

	return p.RetirementGoals.Validate()
}

// Validate enforces the retirement goal invariants, including that the target
// age lies after the current age.
func (g RetirementGoals) Validate() error {
	if g.CurrentAge != nil && (*g.CurrentAge < MinAge || *g.CurrentAge > MaxAge) {
		return Invalid("retirementGoals.currentAge", "must be between %d and %d", MinAge, MaxAge)
	}
	if g.TargetAge != nil && (*g.TargetAge < MinAge || *g.TargetAge > MaxAge) {
		return Invalid("retirementGoals.targetAge", "must be between %d and %d", MinAge, MaxAge)
	}
	if g.MonthlyRetirementIncome != nil && *g.MonthlyRetirementIncome < 0 {
		return Invalid("retirementGoals.monthlyRetirementIncome", "must not be negative")
	}
	if !g.RiskTolerance.Normalize().Valid() {
		return Invalid("retirementGoals.riskTolerance", "must be one of conservative, moderate, aggressive")
	}
	if (g.CurrentAge != nil || g.TargetAge != nil) && g.CurrentAgeOrDefault() >= g.TargetAgeOrDefault() {
		return Invalid("retirementGoals.targetAge", "must be greater than currentAge")
	}
	return nil
}

// Defaults used when the corresponding retirement goal is unset.
const (
	DefaultCurrentAge = 30
	DefaultTargetAge  = 65
)

// CurrentAgeOrDefault returns the current age or DefaultCurrentAge.
func (g RetirementGoals) CurrentAgeOrDefault() int {
	if g.CurrentAge == nil {
		return DefaultCurrentAge
	}
	return *g.CurrentAge
}

// TargetAgeOrDefault returns the target age or DefaultTargetAge.
func (g RetirementGoals) TargetAgeOrDefault() int {
	if g.TargetAge == nil {
		return DefaultTargetAge
	}
	return *g.TargetAge
}

// InvestmentsPatch is a partial update of Investments.
type InvestmentsPatch struct {
	Stocks     *float64 `json:"stocks,omitempty"`
	Bonds      *float64 `json:"bonds,omitempty"`
	RealEstate *float64 `json:"realEstate,omitempty"`
	Other      *float64 `json:"other,omitempty"`
}

// RetirementGoalsPatch is a partial update of RetirementGoals.
type RetirementGoalsPatch struct {
	CurrentAge              *int           `json:"currentAge,omitempty"`
	TargetAge               *int           `json:"targetAge,omitempty"`
	MonthlyRetirementIncome *float64       `json:"monthlyRetirementIncome,omitempty"`
	RiskTolerance           *RiskTolerance `json:"riskTolerance,omitempty"`
}

// ProfilePatch is a partial update of FinancialProfile. Nil fields leave the
// stored value untouched.
type ProfilePatch struct {
	CreditScore        *int                  `json:"creditScore,omitempty"`
	MonthlyIncome      *float64              `json:"monthlyIncome,omitempty"`
	CurrentSavings     *float64              `json:"currentSavings,omitempty"`
	CurrentInvestments *InvestmentsPatch     `json:"currentInvestments,omitempty"`
	RetirementGoals    *RetirementGoalsPatch `json:"retirementGoals,omitempty"`
}

// Apply merges the patch over profile and returns the result.
func (p ProfilePatch) Apply(profile FinancialProfile) FinancialProfile {
	profile.CreditScore = mergePtr(profile.CreditScore, p.CreditScore)
	mergeValue(&profile.MonthlyIncome, p.MonthlyIncome)
	mergeValue(&profile.CurrentSavings, p.CurrentSavings)
	if p.CurrentInvestments != nil {
		profile.CurrentInvestments = p.CurrentInvestments.Apply(profile.CurrentInvestments)
	}
	if p.RetirementGoals != nil {
		profile.RetirementGoals = p.RetirementGoals.Apply(profile.RetirementGoals)
	}
	return profile.WithDefaults()
}

// Apply merges the patch over inv.
func (p InvestmentsPatch) Apply(inv Investments) Investments {
	mergeValue(&inv.Stocks, p.Stocks)
	mergeValue(&inv.Bonds, p.Bonds)
	mergeValue(&inv.RealEstate, p.RealEstate)
	mergeValue(&inv.Other, p.Other)
	return inv
}

// Apply merges the patch over goals.
func (p RetirementGoalsPatch) Apply(goals RetirementGoals) RetirementGoals {
	goals.CurrentAge = mergePtr(goals.CurrentAge, p.CurrentAge)
	goals.TargetAge = mergePtr(goals.TargetAge, p.TargetAge)
	goals.MonthlyRetirementIncome = mergePtr(goals.MonthlyRetirementIncome, p.MonthlyRetirementIncome)
	if p.RiskTolerance != nil {
		goals.RiskTolerance = *p.RiskTolerance
	}
	goals.RiskTolerance = goals.RiskTolerance.Normalize()
	return goals
}

// Profile turns the patch into a complete profile over the zero-valued defaults.
func (p ProfilePatch) Profile() FinancialProfile {
	return p.Apply(FinancialProfile{})
}

func mergePtr[T any](current, update *T) *T {
	if update == nil {
		return current
	}
	v := *update
	return &v
}

func mergeValue[T any](current *T, update *T) {
	if update != nil {
		*current = *update
	}
}
