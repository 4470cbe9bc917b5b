package valuation

import (
	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/domain/profile"
)

// FlexWeightTable distributes flexible roster slots across eligible
// positions by observed usage share. Versioned so tests can pin or
// substitute a table wholesale.
type FlexWeightTable struct {
	Version string
	Weights map[profile.SlotType]map[identity.Position]float64
}

// DefaultFlexWeights reflects how managers actually fill flex slots:
// a generic flex is mostly RB/WR, a superflex is almost always a QB.
func DefaultFlexWeights() FlexWeightTable {
	return FlexWeightTable{
		Version: "2025-08",
		Weights: map[profile.SlotType]map[identity.Position]float64{
			profile.SlotFlex: {
				identity.PositionRB: 0.35,
				identity.PositionWR: 0.35,
				identity.PositionTE: 0.15,
			},
			profile.SlotSuperFlex: {
				identity.PositionQB: 0.75,
				identity.PositionRB: 0.05,
				identity.PositionWR: 0.05,
				identity.PositionTE: 0.05,
			},
			profile.SlotWRT: {
				identity.PositionWR: 0.45,
				identity.PositionRB: 0.40,
				identity.PositionTE: 0.15,
			},
			profile.SlotWR_RB: {
				identity.PositionWR: 0.50,
				identity.PositionRB: 0.50,
			},
			profile.SlotWR_TE: {
				identity.PositionWR: 0.70,
				identity.PositionTE: 0.30,
			},
			profile.SlotIDPFlex: {
				identity.PositionDL: 1.0 / 3.0,
				identity.PositionLB: 1.0 / 3.0,
				identity.PositionDB: 1.0 / 3.0,
			},
			profile.SlotDBFlex: {
				identity.PositionDB: 1.0,
			},
		},
	}
}

// ElasticityCapTable bounds each position's share of the top-100
// adjusted values. Share outside [Min,Max] triggers redistribution.
type ElasticityCapTable struct {
	Version string
	Caps    map[identity.Position]ShareBounds
}

// ShareBounds is an allowed share window for one position.
type ShareBounds struct {
	Min float64
	Max float64
}

// DefaultElasticityCaps keeps any single position from crowding the
// top of the board after VOR normalization.
func DefaultElasticityCaps() ElasticityCapTable {
	return ElasticityCapTable{
		Version: "2025-08",
		Caps: map[identity.Position]ShareBounds{
			identity.PositionRB: {Min: 0.15, Max: 0.30},
			identity.PositionWR: {Min: 0.25, Max: 0.45},
			identity.PositionTE: {Min: 0.04, Max: 0.12},
			identity.PositionQB: {Min: 0.06, Max: 0.18},
		},
	}
}
