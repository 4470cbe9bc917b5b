package valuation

import (
	"math"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/domain/profile"
)

// CalculateMultipliers derives the per-position multipliers implied by
// a league's roster and scoring shape. Computed once per profile and
// persisted alongside it.
func CalculateMultipliers(p profile.LeagueProfile) []profile.PositionMultiplier {
	qb := 1.0
	if p.Superflex {
		qb = 1.25
	}

	rb := 1.05
	if p.SlotCount(profile.SlotRB) >= 3 {
		rb += 0.05
	}

	wr := 1.0
	if p.SlotCount(profile.SlotWR) >= 4 {
		wr += 0.05
	}

	te := 1.0 + math.Min(p.TEPremiumPPR*0.30, 0.25)

	out := []profile.PositionMultiplier{
		{Position: identity.PositionQB, Multiplier: qb},
		{Position: identity.PositionRB, Multiplier: rb},
		{Position: identity.PositionWR, Multiplier: wr},
		{Position: identity.PositionTE, Multiplier: te},
	}

	if p.IDPEnabled {
		out = append(out, idpMultipliers(p.IDPPreset)...)
	}

	return out
}

func idpMultipliers(preset profile.IDPPreset) []profile.PositionMultiplier {
	var lb, db, dl float64
	switch preset {
	case profile.IDPPresetTackleHeavy:
		lb, db, dl = 1.10, 0.95, 1.00
	case profile.IDPPresetBigPlay:
		lb, db, dl = 0.95, 0.90, 1.15
	default:
		lb, db, dl = 1.00, 1.00, 1.00
	}

	return []profile.PositionMultiplier{
		{Position: identity.PositionLB, Multiplier: lb},
		{Position: identity.PositionDB, Multiplier: db},
		{Position: identity.PositionDL, Multiplier: dl},
	}
}

// MultiplierMap indexes persisted multipliers for lookup.
func MultiplierMap(multipliers []profile.PositionMultiplier) map[identity.Position]float64 {
	out := make(map[identity.Position]float64, len(multipliers))
	for _, m := range multipliers {
		out[m.Position] = m.Multiplier
	}
	return out
}

// ApplyMultiplier scales a value by the position's multiplier, falling
// back to identity for unmapped positions, clamped to the value scale.
func ApplyMultiplier(v int, pos identity.Position, multipliers map[identity.Position]float64) int {
	m, ok := multipliers[pos]
	if !ok {
		return clampValue(v)
	}
	return clampValue(int(math.Round(float64(v) * m)))
}
