package valuation

import (
	"math"

	"github.com/gridironlab/valuation-engine/internal/domain/profile"
	"github.com/gridironlab/valuation-engine/internal/domain/value"
)

// Decay constants for the exponential rank curve. Dynasty decays
// slowly because long careers keep deep players relevant; redraft
// decays steeply because only the current season counts.
const (
	DynastyDecay = 0.0045
	RedraftDecay = 0.008
)

// UnrankedSentinel is the rank returned for values at or below zero,
// far past the end of any real player universe.
const UnrankedSentinel = 1000

// DecayFor picks the curve constant for a league format.
func DecayFor(format profile.Format) float64 {
	if format == profile.FormatRedraft {
		return RedraftDecay
	}
	return DynastyDecay
}

// RankToValue converts an overall rank to a value on the 0..MaxValue
// scale via value = max * e^(-k*(rank-1)). Rank 1 maps to the exact
// ceiling; ranks below 1 are treated as rank 1.
func RankToValue(rank int, decay float64) int {
	if rank < 1 {
		return value.MaxValue
	}

	raw := float64(value.MaxValue) * math.Exp(-decay*float64(rank-1))
	return clampValue(int(math.Round(raw)))
}

// ValueToRank inverts the curve. Values at or above the ceiling map to
// rank 1; values at or below zero map to the unranked sentinel.
func ValueToRank(v int, decay float64) int {
	if v >= value.MaxValue {
		return 1
	}
	if v <= 0 {
		return UnrankedSentinel
	}

	rank := 1 - math.Log(float64(v)/float64(value.MaxValue))/decay
	return int(math.Round(rank))
}

func clampValue(v int) int {
	if v < 0 {
		return 0
	}
	if v > value.MaxValue {
		return value.MaxValue
	}
	return v
}
