package valuation

import (
	"testing"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/domain/profile"
)

func superflexProfile() profile.LeagueProfile {
	return profile.LeagueProfile{
		Format:    profile.FormatDynasty,
		NumTeams:  12,
		Superflex: true,
		StartingSlots: map[profile.SlotType]int{
			profile.SlotQB:        1,
			profile.SlotRB:        2,
			profile.SlotWR:        3,
			profile.SlotTE:        1,
			profile.SlotFlex:      1,
			profile.SlotSuperFlex: 1,
		},
	}
}

func TestReplacementLevels_TwelveTeamSuperflex(t *testing.T) {
	levels := ReplacementLevels(superflexProfile(), DefaultFlexWeights())

	// QB: 12*1 dedicated + 12*1*0.75 superflex share = 21.
	if got := levels[identity.PositionQB]; got != 21 {
		t.Fatalf("QB replacement level = %d, want 21", got)
	}
	// RB: 12*2 dedicated + 12*1*0.35 flex + 12*1*0.05 superflex = 28.8 -> 29.
	if got := levels[identity.PositionRB]; got != 29 {
		t.Fatalf("RB replacement level = %d, want 29", got)
	}
}

func TestReplacementLevels_NoSuperflexRB(t *testing.T) {
	p := superflexProfile()
	p.Superflex = false
	delete(p.StartingSlots, profile.SlotSuperFlex)

	levels := ReplacementLevels(p, DefaultFlexWeights())
	// RB: 12*2 + 12*1*0.35 = 28.2 -> 29.
	if got := levels[identity.PositionRB]; got != 29 {
		t.Fatalf("RB replacement level = %d, want 29", got)
	}
}

func TestReplacementLevels_FloorIsOne(t *testing.T) {
	p := profile.LeagueProfile{
		Format:   profile.FormatRedraft,
		NumTeams: 2,
		StartingSlots: map[profile.SlotType]int{
			profile.SlotFlex: 1,
		},
	}

	levels := ReplacementLevels(p, DefaultFlexWeights())
	for pos, rank := range levels {
		if rank < 1 {
			t.Fatalf("%s replacement level %d below floor", pos, rank)
		}
	}
	// TE demand 2*1*0.15 = 0.3 -> ceil 1.
	if got := levels[identity.PositionTE]; got != 1 {
		t.Fatalf("TE replacement level = %d, want floor 1", got)
	}
}

func TestReplacementLevels_IDPFlexSplitsEvenly(t *testing.T) {
	p := profile.LeagueProfile{
		Format:     profile.FormatDynasty,
		NumTeams:   12,
		IDPEnabled: true,
		IDPPreset:  profile.IDPPresetBalanced,
		StartingSlots: map[profile.SlotType]int{
			profile.SlotQB:      1,
			profile.SlotIDPFlex: 3,
		},
	}

	levels := ReplacementLevels(p, DefaultFlexWeights())
	// Each IDP position: 12*3/3 = 12.
	for _, pos := range []identity.Position{identity.PositionDL, identity.PositionLB, identity.PositionDB} {
		if got := levels[pos]; got != 12 {
			t.Fatalf("%s replacement level = %d, want 12", pos, got)
		}
	}
}
