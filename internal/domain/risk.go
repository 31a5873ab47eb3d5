package domain

import "strings"

// RiskTolerance steers both the portfolio advice and the projected growth rate.
type RiskTolerance string

const (
	RiskConservative RiskTolerance = "conservative"
	RiskModerate     RiskTolerance = "moderate"
	RiskAggressive   RiskTolerance = "aggressive"

	DefaultRiskTolerance = RiskModerate
)

// legacyRisk maps the older low/medium/high spelling onto the canonical set.
var legacyRisk = map[RiskTolerance]RiskTolerance{
	"low":    RiskConservative,
	"medium": RiskModerate,
	"high":   RiskAggressive,
}

// Normalize lower-cases r and resolves legacy aliases. Empty values resolve to
// the default. Unknown values are returned unchanged so Valid can reject them.
func (r RiskTolerance) Normalize() RiskTolerance {
	v := RiskTolerance(strings.ToLower(strings.TrimSpace(string(r))))
	if v == "" {
		return DefaultRiskTolerance
	}
	if canonical, ok := legacyRisk[v]; ok {
		return canonical
	}
	return v
}

// Valid reports whether r is one of the canonical values.
func (r RiskTolerance) Valid() bool {
	switch r {
	case RiskConservative, RiskModerate, RiskAggressive:
		return true
	}
	return false
}
