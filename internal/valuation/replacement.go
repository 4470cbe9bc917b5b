package valuation

import (
	"math"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/domain/profile"
)

// ReplacementLevels computes, per position, the overall positional
// rank that separates startable players from bench-only players:
// ceil(teams * dedicated starters + flex-adjusted share), floor 1.
// The result is the denominator for all scarcity math downstream.
func ReplacementLevels(p profile.LeagueProfile, flexWeights FlexWeightTable) map[identity.Position]int {
	teams := float64(p.NumTeams)

	starters := make(map[identity.Position]float64, len(identity.AllPositions))
	for slot, count := range p.StartingSlots {
		if count <= 0 {
			continue
		}
		if pos, fixed := slot.FixedPosition(); fixed {
			starters[pos] += teams * float64(count)
			continue
		}
		for pos, share := range flexWeights.Weights[slot] {
			starters[pos] += teams * float64(count) * share
		}
	}

	levels := make(map[identity.Position]int, len(starters))
	for pos, demand := range starters {
		rank := int(math.Ceil(demand))
		if rank < 1 {
			rank = 1
		}
		levels[pos] = rank
	}

	return levels
}
