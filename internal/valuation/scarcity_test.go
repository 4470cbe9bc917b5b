package valuation

import (
	"fmt"
	"sort"
	"testing"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
)

func TestApplyScarcityAdjustments_CentersReplacementAt5000(t *testing.T) {
	players := []ScarcityInput{
		{PlayerID: "rb1", Position: identity.PositionRB, Value: 9000},
		{PlayerID: "rb2", Position: identity.PositionRB, Value: 7000},
		{PlayerID: "rb3", Position: identity.PositionRB, Value: 5000},
	}
	levels := map[identity.Position]int{identity.PositionRB: 3}

	results := ApplyScarcityAdjustments(players, levels, ElasticityCapTable{})

	// rb3 is the replacement-level player, so VOR 0 and value 5000.
	r := results["rb3"]
	if r.VOR != 0 || r.AdjustedValue != 5000 {
		t.Fatalf("replacement player = %+v, want VOR 0 at 5000", r)
	}
	// rb1 sits 4000 above replacement: 5000 + 4000*1.35 clamps at 10000.
	if got := results["rb1"].AdjustedValue; got != 10000 {
		t.Fatalf("rb1 adjusted = %d, want clamp at 10000", got)
	}
	if got := results["rb2"].ReplacementValue; got != 5000 {
		t.Fatalf("rb2 replacement value = %d, want 5000", got)
	}
}

func TestApplyScarcityAdjustments_ThinPositionUsesWorstPlayer(t *testing.T) {
	players := []ScarcityInput{
		{PlayerID: "te1", Position: identity.PositionTE, Value: 6000},
		{PlayerID: "te2", Position: identity.PositionTE, Value: 4000},
	}
	levels := map[identity.Position]int{identity.PositionTE: 14}

	results := ApplyScarcityAdjustments(players, levels, ElasticityCapTable{})
	if got := results["te1"].ReplacementValue; got != 4000 {
		t.Fatalf("thin position replacement = %d, want worst player 4000", got)
	}
}

// elasticityUniverse builds a board where RB carries well over 30% of
// the adjusted value mass, with WR and QB filling the rest.
func elasticityUniverse() []ScarcityInput {
	var players []ScarcityInput
	add := func(prefix string, pos identity.Position, n int) {
		for i := 0; i < n; i++ {
			players = append(players, ScarcityInput{
				PlayerID: fmt.Sprintf("%s%02d", prefix, i),
				Position: pos,
				Value:    9000 - i*20,
			})
		}
	}
	add("rb", identity.PositionRB, 40)
	add("wr", identity.PositionWR, 30)
	add("qb", identity.PositionQB, 20)
	return players
}

func elasticityLevels() map[identity.Position]int {
	return map[identity.Position]int{
		identity.PositionRB: 20,
		identity.PositionWR: 20,
		identity.PositionQB: 10,
	}
}

func valueShare(results map[string]ScarcityResult, players []ScarcityInput, pos identity.Position) float64 {
	var posSum, total float64
	for _, p := range players {
		v := float64(results[p.PlayerID].AdjustedValue)
		total += v
		if p.Position == pos {
			posSum += v
		}
	}
	return posSum / total
}

func TestApplyScarcityAdjustments_ElasticityReducesOverCapShare(t *testing.T) {
	players := elasticityUniverse()
	caps := ElasticityCapTable{
		Version: "test",
		Caps: map[identity.Position]ShareBounds{
			identity.PositionRB: {Min: 0, Max: 0.30},
		},
	}

	uncapped := ApplyScarcityAdjustments(players, elasticityLevels(), ElasticityCapTable{})
	capped := ApplyScarcityAdjustments(players, elasticityLevels(), caps)

	before := valueShare(uncapped, players, identity.PositionRB)
	after := valueShare(capped, players, identity.PositionRB)

	if before <= 0.30 {
		t.Fatalf("test universe must start over the RB cap, share = %v", before)
	}
	if after >= before {
		t.Fatalf("RB share of adjusted value must strictly decrease: before %v, after %v", before, after)
	}
}

func TestApplyScarcityAdjustments_ElasticityPreservesPositionOrder(t *testing.T) {
	players := elasticityUniverse()
	caps := ElasticityCapTable{
		Version: "test",
		Caps: map[identity.Position]ShareBounds{
			identity.PositionRB: {Min: 0, Max: 0.30},
			identity.PositionWR: {Min: 0.25, Max: 0.45},
			identity.PositionQB: {Min: 0.06, Max: 0.18},
		},
	}

	results := ApplyScarcityAdjustments(players, elasticityLevels(), caps)

	byPos := make(map[identity.Position][]ScarcityInput)
	for _, p := range players {
		byPos[p.Position] = append(byPos[p.Position], p)
	}
	for pos, members := range byPos {
		// Input values within a position are strictly descending by
		// construction, so adjusted values must be non-increasing.
		sort.Slice(members, func(i, j int) bool { return members[i].Value > members[j].Value })
		for i := 1; i < len(members); i++ {
			prev := results[members[i-1].PlayerID].AdjustedValue
			curr := results[members[i].PlayerID].AdjustedValue
			if curr > prev {
				t.Fatalf("%s order flipped: %s (%d) above %s (%d)", pos, members[i].PlayerID, curr, members[i-1].PlayerID, prev)
			}
		}
	}
}

func TestApplyScarcityAdjustments_Empty(t *testing.T) {
	results := ApplyScarcityAdjustments(nil, nil, DefaultElasticityCaps())
	if len(results) != 0 {
		t.Fatalf("empty universe should yield empty results, got %d", len(results))
	}
}
