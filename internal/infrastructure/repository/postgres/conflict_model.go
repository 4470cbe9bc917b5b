package postgres

import (
	"database/sql"
	"time"

	"github.com/gridironlab/valuation-engine/internal/domain/conflict"
)

type conflictTableModel struct {
	ID            string         `db:"id"`
	PlayerID      string         `db:"player_id"`
	OtherPlayerID string         `db:"other_player_id"`
	Type          string         `db:"conflict_type"`
	Confidence    float64        `db:"confidence"`
	Reason        string         `db:"reason"`
	Resolved      bool           `db:"resolved"`
	Resolution    sql.NullString `db:"resolution"`
	CreatedAt     time.Time      `db:"created_at"`
	ResolvedAt    *time.Time     `db:"resolved_at"`
}

func conflictFromRow(row conflictTableModel) conflict.IdentityConflict {
	return conflict.IdentityConflict{
		ID:            row.ID,
		PlayerID:      row.PlayerID,
		OtherPlayerID: row.OtherPlayerID,
		Type:          conflict.Type(row.Type),
		Confidence:    row.Confidence,
		Reason:        row.Reason,
		Resolved:      row.Resolved,
		Resolution:    conflict.Resolution(row.Resolution.String),
		CreatedAt:     row.CreatedAt,
		ResolvedAt:    row.ResolvedAt,
	}
}

type conflictInsertModel struct {
	ID            string    `db:"id"`
	PlayerID      string    `db:"player_id"`
	OtherPlayerID string    `db:"other_player_id"`
	Type          string    `db:"conflict_type"`
	Confidence    float64   `db:"confidence"`
	Reason        string    `db:"reason"`
	Resolved      bool      `db:"resolved"`
	CreatedAt     time.Time `db:"created_at"`
}
