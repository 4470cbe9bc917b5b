package valuation

import "github.com/gridironlab/valuation-engine/internal/domain/identity"

// AgeFactor returns the dynasty age multiplier for a player. Values
// peak in the mid-twenties prime and fall off at both ends; running
// backs carry an extra cliff from 29 on.
func AgeFactor(age int, pos identity.Position) float64 {
	var factor float64
	switch {
	case age <= 0:
		return 1.0
	case age < 23:
		factor = 0.90
	case age <= 24:
		factor = 0.95
	case age <= 27:
		factor = 1.05
	case age <= 29:
		factor = 1.00
	case age <= 31:
		factor = 0.90
	default:
		factor = 0.80
	}

	if pos == identity.PositionRB && age >= 29 {
		factor *= 0.85
	}

	return factor
}

// InjuryStatus is a roster health designation as reported by feeds.
type InjuryStatus string

const (
	InjuryHealthy      InjuryStatus = "Healthy"
	InjuryProbable     InjuryStatus = "Probable"
	InjuryQuestionable InjuryStatus = "Questionable"
	InjuryDoubtful     InjuryStatus = "Doubtful"
	InjuryOut          InjuryStatus = "Out"
	InjuryIR           InjuryStatus = "IR"
	InjuryPUP          InjuryStatus = "PUP"
)

// InjuryFactor discounts value by health designation. Unknown statuses
// are treated as healthy rather than penalized.
func InjuryFactor(status InjuryStatus) float64 {
	switch status {
	case InjuryQuestionable:
		return 0.85
	case InjuryDoubtful:
		return 0.70
	case InjuryOut:
		return 0.50
	case InjuryIR:
		return 0.30
	case InjuryPUP:
		return 0.20
	default:
		return 1.0
	}
}

// productionFactorSpan bounds the production nudge: a 100th-percentile
// producer gains at most 5% before weighting, a 0th loses at most 5%.
const productionFactorSpan = 0.05

// ProductionFactor nudges a value by production percentile. The 50th
// percentile is neutral.
func ProductionFactor(percentile float64) float64 {
	if percentile < 0 {
		percentile = 0
	}
	if percentile > 100 {
		percentile = 100
	}
	return 1 + (percentile-50)/50*productionFactorSpan
}

// WeightedFactor scales a multiplicative factor's distance from
// neutral. Weight 1 keeps the factor, weight 0 disables it entirely.
func WeightedFactor(factor, weight float64) float64 {
	if weight == 1 {
		return factor
	}
	return 1 + (factor-1)*weight
}
