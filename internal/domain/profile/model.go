package profile

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
)

// Format distinguishes keeper economics from single-season economics.
type Format string

const (
	FormatDynasty Format = "dynasty"
	FormatRedraft Format = "redraft"
)

// SlotType is one roster slot kind from league settings. Flexible
// slots admit more than one position.
type SlotType string

const (
	SlotQB        SlotType = "QB"
	SlotRB        SlotType = "RB"
	SlotWR        SlotType = "WR"
	SlotTE        SlotType = "TE"
	SlotK         SlotType = "K"
	SlotDEF       SlotType = "DEF"
	SlotDL        SlotType = "DL"
	SlotLB        SlotType = "LB"
	SlotDB        SlotType = "DB"
	SlotFlex      SlotType = "FLEX"
	SlotSuperFlex SlotType = "SUPER_FLEX"
	SlotWRT       SlotType = "WRT"
	SlotWR_RB     SlotType = "WR_RB"
	SlotWR_TE     SlotType = "WR_TE"
	SlotIDPFlex   SlotType = "IDP_FLEX"
	SlotDBFlex    SlotType = "DB_FLEX"
)

// FixedPosition maps a dedicated slot to its position. Flexible slots
// return false.
func (s SlotType) FixedPosition() (identity.Position, bool) {
	switch s {
	case SlotQB:
		return identity.PositionQB, true
	case SlotRB:
		return identity.PositionRB, true
	case SlotWR:
		return identity.PositionWR, true
	case SlotTE:
		return identity.PositionTE, true
	case SlotK:
		return identity.PositionK, true
	case SlotDEF:
		return identity.PositionDEF, true
	case SlotDL:
		return identity.PositionDL, true
	case SlotLB:
		return identity.PositionLB, true
	case SlotDB:
		return identity.PositionDB, true
	default:
		return "", false
	}
}

// IDPPreset selects a defensive scoring flavor.
type IDPPreset string

const (
	IDPPresetBalanced    IDPPreset = "balanced"
	IDPPresetTackleHeavy IDPPreset = "tackleheavy"
	IDPPresetBigPlay     IDPPreset = "bigplay"
)

// PositionMultiplier is one persisted multiplier row for a profile.
type PositionMultiplier struct {
	Position   identity.Position
	Multiplier float64
}

// LeagueProfile is a deduplicated league scoring and roster shape.
// Two leagues with identical settings share one profile; FormatKey is
// the dedup key. Profiles are created lazily and never mutated except
// to backfill computed multipliers.
type LeagueProfile struct {
	ID            string
	FormatKey     string
	Format        Format
	NumTeams      int
	Superflex     bool
	PPR           float64
	TEPremiumPPR  float64
	IDPEnabled    bool
	IDPPreset     IDPPreset
	StartingSlots map[SlotType]int
	BenchSize     int
	Multipliers   []PositionMultiplier
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p LeagueProfile) Validate() error {
	if p.Format != FormatDynasty && p.Format != FormatRedraft {
		return fmt.Errorf("invalid league format: %s", p.Format)
	}
	if p.NumTeams < 2 {
		return fmt.Errorf("league needs at least 2 teams, got %d", p.NumTeams)
	}
	if p.PPR < 0 || p.TEPremiumPPR < 0 {
		return fmt.Errorf("ppr values cannot be negative")
	}
	if len(p.StartingSlots) == 0 {
		return fmt.Errorf("league needs starting slots")
	}
	if p.IDPEnabled {
		switch p.IDPPreset {
		case IDPPresetBalanced, IDPPresetTackleHeavy, IDPPresetBigPlay:
		default:
			return fmt.Errorf("invalid idp preset: %s", p.IDPPreset)
		}
	}

	return nil
}

// SlotCount returns the starting slot count for one slot type.
func (p LeagueProfile) SlotCount(slot SlotType) int {
	return p.StartingSlots[slot]
}

// pprTier buckets the PPR setting so that near-identical leagues
// collapse to the same key.
func pprTier(ppr float64) string {
	switch {
	case ppr >= 1.0:
		return "full"
	case ppr >= 0.5:
		return "half"
	case ppr > 0:
		return "partial"
	default:
		return "standard"
	}
}

// DeriveFormatKey builds the deterministic dedup key for a settings
// combination. Key parts are ordered and slot counts sorted so field
// ordering in the source settings cannot produce distinct keys.
func DeriveFormatKey(p LeagueProfile) string {
	parts := []string{
		string(p.Format),
		fmt.Sprintf("%dteam", p.NumTeams),
	}
	if p.Superflex {
		parts = append(parts, "sf")
	} else {
		parts = append(parts, "1qb")
	}
	parts = append(parts, pprTier(p.PPR))
	if p.TEPremiumPPR > 0 {
		parts = append(parts, fmt.Sprintf("tep%.2g", p.TEPremiumPPR))
	}
	if p.IDPEnabled {
		parts = append(parts, "idp-"+string(p.IDPPreset))
	}

	slots := make([]string, 0, len(p.StartingSlots))
	for slot, count := range p.StartingSlots {
		if count > 0 {
			slots = append(slots, fmt.Sprintf("%s%d", strings.ToLower(string(slot)), count))
		}
	}
	sort.Strings(slots)
	parts = append(parts, slots...)

	return strings.Join(parts, "_")
}
