package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
)

type identityTableModel struct {
	ID             string         `db:"id"`
	ExternalIDs    []byte         `db:"external_ids"`
	FullName       string         `db:"full_name"`
	NormalizedName string         `db:"normalized_name"`
	BirthYear      sql.NullInt64  `db:"birth_year"`
	Team           string         `db:"team"`
	Position       string         `db:"position"`
	SubPosition    sql.NullString `db:"sub_position"`
	Status         string         `db:"status"`
	LastSeenSource string         `db:"last_seen_source"`
	LastSeenAt     time.Time      `db:"last_seen_at"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

type identityInsertModel struct {
	ID             string         `db:"id"`
	ExternalIDs    []byte         `db:"external_ids"`
	FullName       string         `db:"full_name"`
	NormalizedName string         `db:"normalized_name"`
	BirthYear      sql.NullInt64  `db:"birth_year"`
	Team           string         `db:"team"`
	Position       string         `db:"position"`
	SubPosition    sql.NullString `db:"sub_position"`
	Status         string         `db:"status"`
	LastSeenSource string         `db:"last_seen_source"`
	LastSeenAt     time.Time      `db:"last_seen_at"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func identityFromRow(row identityTableModel) (identity.PlayerIdentity, error) {
	externalIDs := map[identity.Source]string{}
	if len(row.ExternalIDs) > 0 {
		if err := sonic.Unmarshal(row.ExternalIDs, &externalIDs); err != nil {
			return identity.PlayerIdentity{}, fmt.Errorf("decode external ids for player %s: %w", row.ID, err)
		}
	}

	return identity.PlayerIdentity{
		ID:             row.ID,
		ExternalIDs:    externalIDs,
		FullName:       row.FullName,
		NormalizedName: row.NormalizedName,
		BirthYear:      nullIntToPtr(row.BirthYear),
		Team:           row.Team,
		Position:       identity.Position(row.Position),
		SubPosition:    identity.SubPosition(row.SubPosition.String),
		Status:         identity.Status(row.Status),
		LastSeenSource: identity.Source(row.LastSeenSource),
		LastSeenAt:     row.LastSeenAt,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}

func identityToInsertModel(p identity.PlayerIdentity) (identityInsertModel, error) {
	externalIDs, err := sonic.Marshal(p.ExternalIDs)
	if err != nil {
		return identityInsertModel{}, fmt.Errorf("encode external ids for player %s: %w", p.ID, err)
	}

	return identityInsertModel{
		ID:             p.ID,
		ExternalIDs:    externalIDs,
		FullName:       p.FullName,
		NormalizedName: p.NormalizedName,
		BirthYear:      nullableInt(p.BirthYear),
		Team:           p.Team,
		Position:       string(p.Position),
		SubPosition:    nullableString(string(p.SubPosition)),
		Status:         string(p.Status),
		LastSeenSource: string(p.LastSeenSource),
		LastSeenAt:     p.LastSeenAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}, nil
}
