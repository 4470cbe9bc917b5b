package postgres

import (
	"time"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/domain/value"
)

type snapshotTableModel struct {
	ID          string    `db:"id"`
	FormatKey   string    `db:"format_key"`
	PlayerCount int       `db:"player_count"`
	Current     bool      `db:"is_current"`
	CreatedAt   time.Time `db:"created_at"`
}

func snapshotFromRow(row snapshotTableModel) value.Snapshot {
	return value.Snapshot{
		ID:          row.ID,
		FormatKey:   row.FormatKey,
		PlayerCount: row.PlayerCount,
		Current:     row.Current,
		CreatedAt:   row.CreatedAt,
	}
}

type playerValueTableModel struct {
	PlayerID         string  `db:"player_id"`
	SnapshotID       string  `db:"snapshot_id"`
	FormatKey        string  `db:"format_key"`
	Position         string  `db:"position"`
	Rank             int     `db:"rank"`
	RawValue         int     `db:"raw_value"`
	MultipliedValue  int     `db:"multiplied_value"`
	ScarcityValue    int     `db:"scarcity_value"`
	FinalValue       int     `db:"final_value"`
	ReplacementValue int     `db:"replacement_value"`
	VOR              int     `db:"vor"`
	AnchorStrength   float64 `db:"anchor_strength"`
	Confidence       float64 `db:"confidence"`
	AgeFactor        float64 `db:"age_factor"`
	InjuryFactor     float64 `db:"injury_factor"`
	Breakout         bool    `db:"breakout"`
	Outlier          bool    `db:"outlier"`
}

func playerValueFromRow(row playerValueTableModel) value.PlayerValue {
	return value.PlayerValue{
		PlayerID:         row.PlayerID,
		SnapshotID:       row.SnapshotID,
		FormatKey:        row.FormatKey,
		Position:         identity.Position(row.Position),
		Rank:             row.Rank,
		RawValue:         row.RawValue,
		MultipliedValue:  row.MultipliedValue,
		ScarcityValue:    row.ScarcityValue,
		FinalValue:       row.FinalValue,
		ReplacementValue: row.ReplacementValue,
		VOR:              row.VOR,
		AnchorStrength:   row.AnchorStrength,
		Confidence:       row.Confidence,
		AgeFactor:        row.AgeFactor,
		InjuryFactor:     row.InjuryFactor,
		Breakout:         row.Breakout,
		Outlier:          row.Outlier,
	}
}

func playerValueToInsertModel(v value.PlayerValue) playerValueTableModel {
	return playerValueTableModel{
		PlayerID:         v.PlayerID,
		SnapshotID:       v.SnapshotID,
		FormatKey:        v.FormatKey,
		Position:         string(v.Position),
		Rank:             v.Rank,
		RawValue:         v.RawValue,
		MultipliedValue:  v.MultipliedValue,
		ScarcityValue:    v.ScarcityValue,
		FinalValue:       v.FinalValue,
		ReplacementValue: v.ReplacementValue,
		VOR:              v.VOR,
		AnchorStrength:   v.AnchorStrength,
		Confidence:       v.Confidence,
		AgeFactor:        v.AgeFactor,
		InjuryFactor:     v.InjuryFactor,
		Breakout:         v.Breakout,
		Outlier:          v.Outlier,
	}
}
