package valuation

import (
	"math"
	"sort"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
)

// VOR normalization constants. Centering every position's replacement
// player at 5000 makes values comparable across positions.
const (
	vorCenter = 5000
	vorScale  = 1.35
)

// topBoardSize is the window over which positional shares are policed.
const topBoardSize = 100

// ScarcityInput is one player's post-multiplier value entering the
// scarcity pass.
type ScarcityInput struct {
	PlayerID string
	Position identity.Position
	Value    int
}

// ScarcityResult carries the adjusted value plus the intermediate
// numbers kept for debugging.
type ScarcityResult struct {
	AdjustedValue    int
	ReplacementValue int
	VOR              int
}

// ApplyScarcityAdjustments converts raw values to VOR-normalized
// values, then redistributes between positions that violate their
// elasticity bounds. The second pass shifts value spread between
// positions but never reorders players within one position.
func ApplyScarcityAdjustments(players []ScarcityInput, levels map[identity.Position]int, caps ElasticityCapTable) map[string]ScarcityResult {
	results := make(map[string]ScarcityResult, len(players))
	if len(players) == 0 {
		return results
	}

	replacement := replacementValues(players, levels)
	for _, p := range players {
		vor := p.Value - replacement[p.Position]
		adjusted := clampValue(int(math.Round(vorCenter + float64(vor)*vorScale)))
		results[p.PlayerID] = ScarcityResult{
			AdjustedValue:    adjusted,
			ReplacementValue: replacement[p.Position],
			VOR:              vor,
		}
	}

	applyElasticity(players, results, caps)

	return results
}

// replacementValues finds each position's raw value at its replacement
// rank. Positions thinner than their replacement rank use their worst
// player as the baseline.
func replacementValues(players []ScarcityInput, levels map[identity.Position]int) map[identity.Position]int {
	byPos := make(map[identity.Position][]int)
	for _, p := range players {
		byPos[p.Position] = append(byPos[p.Position], p.Value)
	}

	out := make(map[identity.Position]int, len(byPos))
	for pos, values := range byPos {
		sort.Sort(sort.Reverse(sort.IntSlice(values)))
		rank := levels[pos]
		if rank < 1 {
			rank = 1
		}
		idx := rank - 1
		if idx >= len(values) {
			idx = len(values) - 1
		}
		out[pos] = values[idx]
	}

	return out
}

// applyElasticity polices each position's share of the total adjusted
// value on the top board. Violating positions get a graduated shift,
// largest for players closest to rank 1, then a monotonic clamp
// guarantees intra-position order is preserved.
func applyElasticity(players []ScarcityInput, results map[string]ScarcityResult, caps ElasticityCapTable) {
	ordered := make([]ScarcityInput, len(players))
	copy(ordered, players)
	sort.Slice(ordered, func(i, j int) bool {
		ri, rj := results[ordered[i].PlayerID], results[ordered[j].PlayerID]
		if ri.AdjustedValue != rj.AdjustedValue {
			return ri.AdjustedValue > rj.AdjustedValue
		}
		return ordered[i].PlayerID < ordered[j].PlayerID
	})

	board := ordered
	if len(board) > topBoardSize {
		board = board[:topBoardSize]
	}

	sums := make(map[identity.Position]float64)
	var total float64
	for _, p := range board {
		v := float64(results[p.PlayerID].AdjustedValue)
		sums[p.Position] += v
		total += v
	}
	if total == 0 {
		return
	}

	for pos, bounds := range caps.Caps {
		share := sums[pos] / total

		var violation float64
		switch {
		case share > bounds.Max:
			violation = share - bounds.Max
		case share < bounds.Min:
			violation = share - bounds.Min
		default:
			continue
		}

		shiftPosition(pos, violation, board, results)
	}

	for pos := range caps.Caps {
		enforceOrder(pos, ordered, results)
	}
}

// shiftPosition compresses (positive violation, over cap) or boosts
// (negative violation, under floor) the position's players on the
// board. The shift scales with violation size and rank proximity.
func shiftPosition(pos identity.Position, violation float64, board []ScarcityInput, results map[string]ScarcityResult) {
	var members []string
	for _, p := range board {
		if p.Position == pos {
			members = append(members, p.PlayerID)
		}
	}
	if len(members) == 0 {
		return
	}

	n := float64(len(members))
	for i, id := range members {
		rankWeight := (n - float64(i)) / n
		factor := 1 - violation*0.5*rankWeight
		if factor < 0.5 {
			factor = 0.5
		}

		r := results[id]
		shifted := vorCenter + float64(r.AdjustedValue-vorCenter)*factor
		r.AdjustedValue = clampValue(int(math.Round(shifted)))
		results[id] = r
	}
}

// enforceOrder walks the position's players in pre-shift order and
// clamps each adjusted value to its predecessor's, so graduated shifts
// can narrow gaps but never flip two players of the same position.
func enforceOrder(pos identity.Position, ordered []ScarcityInput, results map[string]ScarcityResult) {
	prev := -1
	for _, p := range ordered {
		if p.Position != pos {
			continue
		}
		r := results[p.PlayerID]
		if prev >= 0 && r.AdjustedValue > prev {
			r.AdjustedValue = prev
			results[p.PlayerID] = r
		}
		prev = r.AdjustedValue
	}
}
