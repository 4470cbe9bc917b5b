package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/gridironlab/valuation-engine/internal/domain/profile"
)

type profileTableModel struct {
	ID            string         `db:"id"`
	FormatKey     string         `db:"format_key"`
	Format        string         `db:"format"`
	NumTeams      int            `db:"num_teams"`
	Superflex     bool           `db:"superflex"`
	PPR           float64        `db:"ppr"`
	TEPremiumPPR  float64        `db:"te_premium_ppr"`
	IDPEnabled    bool           `db:"idp_enabled"`
	IDPPreset     sql.NullString `db:"idp_preset"`
	StartingSlots []byte         `db:"starting_slots"`
	BenchSize     int            `db:"bench_size"`
	Multipliers   []byte         `db:"multipliers"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func profileFromRow(row profileTableModel) (profile.LeagueProfile, error) {
	slots := map[profile.SlotType]int{}
	if len(row.StartingSlots) > 0 {
		if err := sonic.Unmarshal(row.StartingSlots, &slots); err != nil {
			return profile.LeagueProfile{}, fmt.Errorf("decode starting slots for profile %s: %w", row.ID, err)
		}
	}

	var multipliers []profile.PositionMultiplier
	if len(row.Multipliers) > 0 {
		if err := sonic.Unmarshal(row.Multipliers, &multipliers); err != nil {
			return profile.LeagueProfile{}, fmt.Errorf("decode multipliers for profile %s: %w", row.ID, err)
		}
	}

	return profile.LeagueProfile{
		ID:            row.ID,
		FormatKey:     row.FormatKey,
		Format:        profile.Format(row.Format),
		NumTeams:      row.NumTeams,
		Superflex:     row.Superflex,
		PPR:           row.PPR,
		TEPremiumPPR:  row.TEPremiumPPR,
		IDPEnabled:    row.IDPEnabled,
		IDPPreset:     profile.IDPPreset(row.IDPPreset.String),
		StartingSlots: slots,
		BenchSize:     row.BenchSize,
		Multipliers:   multipliers,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

func profileToInsertModel(p profile.LeagueProfile) (profileTableModel, error) {
	slots, err := sonic.Marshal(p.StartingSlots)
	if err != nil {
		return profileTableModel{}, fmt.Errorf("encode starting slots for profile %s: %w", p.ID, err)
	}
	multipliers, err := sonic.Marshal(p.Multipliers)
	if err != nil {
		return profileTableModel{}, fmt.Errorf("encode multipliers for profile %s: %w", p.ID, err)
	}

	return profileTableModel{
		ID:            p.ID,
		FormatKey:     p.FormatKey,
		Format:        string(p.Format),
		NumTeams:      p.NumTeams,
		Superflex:     p.Superflex,
		PPR:           p.PPR,
		TEPremiumPPR:  p.TEPremiumPPR,
		IDPEnabled:    p.IDPEnabled,
		IDPPreset:     nullableString(string(p.IDPPreset)),
		StartingSlots: slots,
		BenchSize:     p.BenchSize,
		Multipliers:   multipliers,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}, nil
}
