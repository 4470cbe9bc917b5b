package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gridironlab/valuation-engine/internal/domain/conflict"
	qb "github.com/gridironlab/valuation-engine/internal/platform/querybuilder"
)

type ConflictRepository struct {
	db *sqlx.DB
}

var conflictSelectColumns = []string{
	"id",
	"player_id",
	"other_player_id",
	"conflict_type",
	"confidence",
	"reason",
	"resolved",
	"resolution",
	"created_at",
	"resolved_at",
}

func NewConflictRepository(db *sqlx.DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

func conflictBaseSelectBuilder() *qb.SelectBuilder {
	return qb.Select(conflictSelectColumns...).From("identity_conflicts")
}

func (r *ConflictRepository) GetByID(ctx context.Context, id string) (conflict.IdentityConflict, bool, error) {
	query, args, err := conflictBaseSelectBuilder().
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return conflict.IdentityConflict{}, false, fmt.Errorf("build get conflict query: %w", err)
	}

	var row conflictTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return conflict.IdentityConflict{}, false, nil
		}
		return conflict.IdentityConflict{}, false, fmt.Errorf("get conflict: %w", err)
	}
	return conflictFromRow(row), true, nil
}

func (r *ConflictRepository) ListOpen(ctx context.Context) ([]conflict.IdentityConflict, error) {
	query, args, err := conflictBaseSelectBuilder().
		Where(qb.Eq("resolved", false)).
		OrderBy("confidence DESC", "created_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list open conflicts query: %w", err)
	}
	return r.list(ctx, query, args)
}

func (r *ConflictRepository) ListOpenForPlayer(ctx context.Context, playerID string) ([]conflict.IdentityConflict, error) {
	query, args, err := conflictBaseSelectBuilder().
		Where(
			qb.Eq("resolved", false),
			qb.Expr("(player_id = ? OR other_player_id = ?)", playerID, playerID),
		).
		OrderBy("confidence DESC", "created_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list conflicts for player query: %w", err)
	}
	return r.list(ctx, query, args)
}

func (r *ConflictRepository) list(ctx context.Context, query string, args []any) ([]conflict.IdentityConflict, error) {
	var rows []conflictTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select conflicts: %w", err)
	}

	out := make([]conflict.IdentityConflict, 0, len(rows))
	for _, row := range rows {
		out = append(out, conflictFromRow(row))
	}
	return out, nil
}

// Upsert keys on the player pair and type rather than the row id, so
// rescans refresh the confidence of an existing open finding instead
// of stacking duplicates of the duplicate.
func (r *ConflictRepository) Upsert(ctx context.Context, c conflict.IdentityConflict) error {
	insertModel := conflictInsertModel{
		ID:            c.ID,
		PlayerID:      c.PlayerID,
		OtherPlayerID: c.OtherPlayerID,
		Type:          string(c.Type),
		Confidence:    c.Confidence,
		Reason:        c.Reason,
		Resolved:      c.Resolved,
		CreatedAt:     c.CreatedAt,
	}

	query, args, err := qb.InsertModel("identity_conflicts", insertModel, `ON CONFLICT (player_id, other_player_id, conflict_type) WHERE NOT resolved
DO UPDATE SET
    confidence = EXCLUDED.confidence,
    reason = EXCLUDED.reason`)
	if err != nil {
		return fmt.Errorf("build conflict upsert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert conflict: %w", err)
	}
	return nil
}

func (r *ConflictRepository) Resolve(ctx context.Context, id string, resolution conflict.Resolution) error {
	query, args, err := qb.Update("identity_conflicts").
		Set("resolved", true).
		Set("resolution", string(resolution)).
		SetExpr("resolved_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build conflict resolve query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("resolve conflict: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read conflict resolve result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("conflict %s not found", id)
	}
	return nil
}
