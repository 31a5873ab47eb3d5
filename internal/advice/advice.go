// Package advice computes retirement savings targets and growth projections.
// Everything here is a pure function of its inputs.
package advice

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/vanshika/finadvisor/backend/internal/domain"
)

const (
	// incomeReplacementRatio estimates retirement spending when no explicit
	// monthly retirement income is set.
	incomeReplacementRatio = 0.8
	// withdrawalMultiple converts an annual need into a principal target (4% rule).
	withdrawalMultiple = 25
)

var portfolioAdvice = map[domain.RiskTolerance]string{
	domain.RiskConservative: "Conservative portfolio: 70% bonds, 30% stocks",
	domain.RiskModerate:     "Balanced portfolio: 50% stocks, 40% bonds, 10% alternative investments",
	domain.RiskAggressive:   "Aggressive portfolio: 80% stocks, 10% bonds, 10% alternative investments",
}

// Analysis is the retirement readiness report for a profile.
type Analysis struct {
	TotalInvestments             float64  `json:"totalInvestments"`
	CurrentTotal                 float64  `json:"currentTotal"`
	YearsUntilRetirement         int      `json:"yearsUntilRetirement"`
	MonthlyRetirementNeed        float64  `json:"monthlyRetirementNeed"`
	AnnualRetirementNeed         float64  `json:"annualRetirementNeed"`
	TotalRetirementSavingsNeeded float64  `json:"totalRetirementSavingsNeeded"`
	RemainingNeeded              float64  `json:"remainingNeeded"`
	MonthlySavingsNeeded         float64  `json:"monthlySavingsNeeded"`
	InvestmentAdvice             string   `json:"investmentAdvice"`
	Recommendations              []string `json:"recommendations"`
}

// InvestmentAdvice returns the portfolio mix recommended for a risk tolerance.
// Legacy spellings resolve through the alias table; unknown values fall back
// to the balanced mix.
func InvestmentAdvice(risk domain.RiskTolerance) string {
	if advice, ok := portfolioAdvice[risk.Normalize()]; ok {
		return advice
	}
	return portfolioAdvice[domain.DefaultRiskTolerance]
}

// Retirement computes the savings target and monthly contribution required for
// profile. A target age that is not after the current age is rejected.
func Retirement(profile domain.FinancialProfile) (Analysis, error) {
	goals := profile.RetirementGoals
	years := goals.TargetAgeOrDefault() - goals.CurrentAgeOrDefault()
	if years <= 0 {
		return Analysis{}, domain.Invalid("retirementGoals.targetAge", "must be greater than currentAge")
	}

	monthlyNeed := profile.MonthlyIncome * incomeReplacementRatio
	if goals.MonthlyRetirementIncome != nil && *goals.MonthlyRetirementIncome > 0 {
		monthlyNeed = *goals.MonthlyRetirementIncome
	}

	a := Analysis{
		TotalInvestments:      profile.CurrentInvestments.Total(),
		YearsUntilRetirement:  years,
		MonthlyRetirementNeed: monthlyNeed,
		AnnualRetirementNeed:  monthlyNeed * 12,
		InvestmentAdvice:      InvestmentAdvice(goals.RiskTolerance),
	}
	a.CurrentTotal = a.TotalInvestments + profile.CurrentSavings
	a.TotalRetirementSavingsNeeded = a.AnnualRetirementNeed * withdrawalMultiple
	a.RemainingNeeded = a.TotalRetirementSavingsNeeded - a.CurrentTotal
	a.MonthlySavingsNeeded = a.RemainingNeeded / float64(years*12)
	a.Recommendations = recommendations(a)
	return a, nil
}

func recommendations(a Analysis) []string {
	var first string
	if a.RemainingNeeded > 0 {
		first = fmt.Sprintf("You need to save approximately $%s monthly to reach your retirement goal.", money(a.MonthlySavingsNeeded))
	} else {
		first = fmt.Sprintf("You are on track: current savings exceed your retirement goal by $%s.", money(a.CurrentTotal-a.TotalRetirementSavingsNeeded))
	}

	progress := 100.0
	if a.TotalRetirementSavingsNeeded > 0 {
		progress = a.CurrentTotal / a.TotalRetirementSavingsNeeded * 100
	}

	return []string{
		first,
		fmt.Sprintf("Your total retirement savings goal is $%s.", money(a.TotalRetirementSavingsNeeded)),
		fmt.Sprintf("Current progress: %s%% of goal.", decimal.NewFromFloat(progress).StringFixed(1)),
		"Recommended investment strategy: " + a.InvestmentAdvice,
	}
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Monthly growth rates assumed per risk level (roughly 5%, 7% and 10% a year).
var monthlyRates = map[domain.RiskTolerance]float64{
	domain.RiskConservative: 0.004,
	domain.RiskModerate:     0.006,
	domain.RiskAggressive:   0.008,
}

// MonthlyRate returns the assumed monthly growth rate for risk.
func MonthlyRate(risk domain.RiskTolerance) float64 {
	if rate, ok := monthlyRates[risk.Normalize()]; ok {
		return rate
	}
	return monthlyRates[domain.DefaultRiskTolerance]
}

// ProjectGrowth compounds a fixed monthly contribution from currentAge until
// retirementAge and returns the final balance rounded to the nearest unit.
// Contributions are made at the start of each month.
func ProjectGrowth(currentAge, retirementAge int, monthlyContribution float64, risk domain.RiskTolerance) int64 {
	rate := MonthlyRate(risk)
	periods := (retirementAge - currentAge) * 12

	total := 0.0
	for i := 0; i < periods; i++ {
		total = (total + monthlyContribution) * (1 + rate)
	}
	return int64(math.Floor(total + 0.5))
}
