package valuation

import (
	"fmt"
	"math"

	"github.com/gridironlab/valuation-engine/internal/domain/tuning"
)

// Anchor tier boundaries by model rank. Elite players are pulled least
// toward market consensus; deep players track the market most.
const (
	anchorTier1MaxRank = 24
	anchorTier2MaxRank = 60
	anchorTier3MaxRank = 120
)

// breakoutPercentile is the production percentile at or above which a
// player is protected from being anchored down to a lagging market.
const breakoutPercentile = 90

// outlierRankGap is the model/market rank distance past which one
// data point is distrusted and the pull is capped.
const outlierRankGap = 120

// confidenceRankSpan scales rank disagreement into a 0..1 confidence.
const confidenceRankSpan = 400

// AnchorInput is one player's state entering the market anchor pass.
type AnchorInput struct {
	PlayerID             string
	ModelValue           int
	ModelRank            int
	MarketRank           *int
	ProductionPercentile *float64
	Decay                float64
}

// AnchorResult is the anchored value with its audit trail.
type AnchorResult struct {
	AnchoredValue       int
	AnchorAdjustment    int
	AnchorStrength      float64
	Confidence          float64
	IsOutlier           bool
	IsBreakoutProtected bool
	Explanation         string
}

// ApplyMarketAnchor pulls a model value toward the external consensus
// value by a rank-tiered strength. Pure per player, safe to run in
// parallel across the universe. A missing market rank passes the model
// value through at neutral confidence.
func ApplyMarketAnchor(in AnchorInput, cfg tuning.Config) AnchorResult {
	if in.MarketRank == nil {
		return AnchorResult{
			AnchoredValue: clampValue(in.ModelValue),
			Confidence:    0.5,
			Explanation:   "no market rank, model value passed through",
		}
	}

	marketValue := RankToValue(*in.MarketRank, in.Decay)
	difference := marketValue - in.ModelValue

	strength := tierStrength(in.ModelRank, cfg)
	explanation := fmt.Sprintf("tier strength %.2f for model rank %d", strength, in.ModelRank)

	breakout := in.ProductionPercentile != nil && *in.ProductionPercentile >= breakoutPercentile
	if breakout {
		strength *= cfg.BreakoutDampening
		explanation += fmt.Sprintf("; breakout protection dampened pull to %.3f", strength)
	}

	rankGap := in.ModelRank - *in.MarketRank
	if rankGap < 0 {
		rankGap = -rankGap
	}
	outlier := rankGap > outlierRankGap
	if outlier && strength > cfg.OutlierStrengthCap {
		strength = cfg.OutlierStrengthCap
		explanation += fmt.Sprintf("; outlier gap %d capped pull at %.2f", rankGap, strength)
	}

	anchored := clampValue(in.ModelValue + int(math.Round(float64(difference)*strength)))
	confidence := math.Max(0, math.Min(1, 1-float64(rankGap)/confidenceRankSpan))

	return AnchorResult{
		AnchoredValue:       anchored,
		AnchorAdjustment:    anchored - in.ModelValue,
		AnchorStrength:      strength,
		Confidence:          confidence,
		IsOutlier:           outlier,
		IsBreakoutProtected: breakout,
		Explanation:         explanation,
	}
}

func tierStrength(modelRank int, cfg tuning.Config) float64 {
	switch {
	case modelRank <= anchorTier1MaxRank:
		return cfg.AnchorTier1Strength
	case modelRank <= anchorTier2MaxRank:
		return cfg.AnchorTier2Strength
	case modelRank <= anchorTier3MaxRank:
		return cfg.AnchorTier3Strength
	default:
		return cfg.AnchorTier4Strength
	}
}
