package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gridironlab/valuation-engine/internal/domain/value"
	qb "github.com/gridironlab/valuation-engine/internal/platform/querybuilder"
)

type ValueRepository struct {
	db *sqlx.DB
}

var snapshotSelectColumns = []string{
	"id",
	"format_key",
	"player_count",
	"is_current",
	"created_at",
}

var playerValueSelectColumns = []string{
	"player_id",
	"snapshot_id",
	"format_key",
	"position",
	"rank",
	"raw_value",
	"multiplied_value",
	"scarcity_value",
	"final_value",
	"replacement_value",
	"vor",
	"anchor_strength",
	"confidence",
	"age_factor",
	"injury_factor",
	"breakout",
	"outlier",
}

func NewValueRepository(db *sqlx.DB) *ValueRepository {
	return &ValueRepository{db: db}
}

func (r *ValueRepository) GetCurrentSnapshot(ctx context.Context, formatKey string) (value.Snapshot, bool, error) {
	query, args, err := qb.Select(snapshotSelectColumns...).From("value_snapshots").
		Where(
			qb.Eq("format_key", formatKey),
			qb.Eq("is_current", true),
		).
		ToSQL()
	if err != nil {
		return value.Snapshot{}, false, fmt.Errorf("build get current snapshot query: %w", err)
	}

	var row snapshotTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return value.Snapshot{}, false, nil
		}
		return value.Snapshot{}, false, fmt.Errorf("get current snapshot: %w", err)
	}
	return snapshotFromRow(row), true, nil
}

func (r *ValueRepository) GetSnapshotByID(ctx context.Context, id string) (value.Snapshot, bool, error) {
	query, args, err := qb.Select(snapshotSelectColumns...).From("value_snapshots").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return value.Snapshot{}, false, fmt.Errorf("build get snapshot query: %w", err)
	}

	var row snapshotTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return value.Snapshot{}, false, nil
		}
		return value.Snapshot{}, false, fmt.Errorf("get snapshot: %w", err)
	}
	return snapshotFromRow(row), true, nil
}

func (r *ValueRepository) GetPlayerValue(ctx context.Context, snapshotID, playerID string) (value.PlayerValue, bool, error) {
	query, args, err := qb.Select(playerValueSelectColumns...).From("player_values").
		Where(
			qb.Eq("snapshot_id", snapshotID),
			qb.Eq("player_id", playerID),
		).
		ToSQL()
	if err != nil {
		return value.PlayerValue{}, false, fmt.Errorf("build get player value query: %w", err)
	}

	var row playerValueTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return value.PlayerValue{}, false, nil
		}
		return value.PlayerValue{}, false, fmt.Errorf("get player value: %w", err)
	}
	return playerValueFromRow(row), true, nil
}

func (r *ValueRepository) ListValues(ctx context.Context, snapshotID string) ([]value.PlayerValue, error) {
	query, args, err := qb.Select(playerValueSelectColumns...).From("player_values").
		Where(qb.Eq("snapshot_id", snapshotID)).
		OrderBy("rank").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list player values query: %w", err)
	}

	var rows []playerValueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list player values: %w", err)
	}

	out := make([]value.PlayerValue, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerValueFromRow(row))
	}
	return out, nil
}

// PublishSnapshot writes the snapshot, its rows, and the current
// pointer flip in one transaction. Readers see the old board until the
// commit and the new board after it, never a partial one.
func (r *ValueRepository) PublishSnapshot(ctx context.Context, snapshot value.Snapshot, values []value.PlayerValue) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx publish snapshot: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	demoteQuery, demoteArgs, err := qb.Update("value_snapshots").
		Set("is_current", false).
		Where(
			qb.Eq("format_key", snapshot.FormatKey),
			qb.Eq("is_current", true),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build demote snapshot query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, demoteQuery, demoteArgs...); err != nil {
		return fmt.Errorf("demote previous snapshot: %w", err)
	}

	snapshotModel := snapshotTableModel{
		ID:          snapshot.ID,
		FormatKey:   snapshot.FormatKey,
		PlayerCount: snapshot.PlayerCount,
		Current:     true,
		CreatedAt:   snapshot.CreatedAt,
	}
	insertQuery, insertArgs, err := qb.InsertModel("value_snapshots", snapshotModel, "")
	if err != nil {
		return fmt.Errorf("build insert snapshot query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	for _, v := range values {
		rowQuery, rowArgs, err := qb.InsertModel("player_values", playerValueToInsertModel(v), "")
		if err != nil {
			return fmt.Errorf("build insert player value query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, rowQuery, rowArgs...); err != nil {
			return fmt.Errorf("insert player value for %s: %w", v.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit publish snapshot: %w", err)
	}
	return nil
}

func (r *ValueRepository) DeleteOrphanValues(ctx context.Context, validPlayerIDs map[string]struct{}) (int, error) {
	if len(validPlayerIDs) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(validPlayerIDs))
	for id := range validPlayerIDs {
		ids = append(ids, id)
	}

	result, err := r.db.ExecContext(ctx,
		"DELETE FROM player_values WHERE NOT (player_id = ANY($1))",
		pq.Array(ids),
	)
	if err != nil {
		return 0, fmt.Errorf("delete orphan player values: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read orphan delete result: %w", err)
	}
	return int(affected), nil
}
