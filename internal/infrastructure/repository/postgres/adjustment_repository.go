package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gridironlab/valuation-engine/internal/domain/adjustment"
	qb "github.com/gridironlab/valuation-engine/internal/platform/querybuilder"
)

type AdjustmentRepository struct {
	db *sqlx.DB
}

type adjustmentTableModel struct {
	ID         string    `db:"id"`
	PlayerID   string    `db:"player_id"`
	FormatKey  string    `db:"format_key"`
	Delta      int       `db:"delta"`
	Reason     string    `db:"reason"`
	Source     string    `db:"source"`
	Confidence int       `db:"confidence"`
	ExpiresAt  time.Time `db:"expires_at"`
	CreatedAt  time.Time `db:"created_at"`
}

var adjustmentSelectColumns = []string{
	"id",
	"player_id",
	"format_key",
	"delta",
	"reason",
	"source",
	"confidence",
	"expires_at",
	"created_at",
}

func NewAdjustmentRepository(db *sqlx.DB) *AdjustmentRepository {
	return &AdjustmentRepository{db: db}
}

func adjustmentFromRow(row adjustmentTableModel) adjustment.ValueAdjustment {
	return adjustment.ValueAdjustment{
		ID:         row.ID,
		PlayerID:   row.PlayerID,
		FormatKey:  row.FormatKey,
		Delta:      row.Delta,
		Reason:     row.Reason,
		Source:     row.Source,
		Confidence: row.Confidence,
		ExpiresAt:  row.ExpiresAt,
		CreatedAt:  row.CreatedAt,
	}
}

func (r *AdjustmentRepository) ListActive(ctx context.Context, playerID, formatKey string, now time.Time) ([]adjustment.ValueAdjustment, error) {
	query, args, err := qb.Select(adjustmentSelectColumns...).From("value_adjustments").
		Where(
			qb.Eq("player_id", playerID),
			qb.Eq("format_key", formatKey),
			qb.Expr("expires_at > ?", now),
		).
		OrderBy("created_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list active adjustments query: %w", err)
	}
	return r.list(ctx, query, args)
}

func (r *AdjustmentRepository) ListAllActive(ctx context.Context, formatKey string, now time.Time) ([]adjustment.ValueAdjustment, error) {
	query, args, err := qb.Select(adjustmentSelectColumns...).From("value_adjustments").
		Where(
			qb.Eq("format_key", formatKey),
			qb.Expr("expires_at > ?", now),
		).
		OrderBy("player_id", "created_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list all active adjustments query: %w", err)
	}
	return r.list(ctx, query, args)
}

func (r *AdjustmentRepository) list(ctx context.Context, query string, args []any) ([]adjustment.ValueAdjustment, error) {
	var rows []adjustmentTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select adjustments: %w", err)
	}

	out := make([]adjustment.ValueAdjustment, 0, len(rows))
	for _, row := range rows {
		out = append(out, adjustmentFromRow(row))
	}
	return out, nil
}

func (r *AdjustmentRepository) Insert(ctx context.Context, a adjustment.ValueAdjustment) error {
	insertModel := adjustmentTableModel{
		ID:         a.ID,
		PlayerID:   a.PlayerID,
		FormatKey:  a.FormatKey,
		Delta:      a.Delta,
		Reason:     a.Reason,
		Source:     a.Source,
		Confidence: a.Confidence,
		ExpiresAt:  a.ExpiresAt,
		CreatedAt:  a.CreatedAt,
	}

	query, args, err := qb.InsertModel("value_adjustments", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert adjustment query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert adjustment: %w", err)
	}
	return nil
}

func (r *AdjustmentRepository) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM value_adjustments WHERE expires_at <= $1",
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired adjustments: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read expired delete result: %w", err)
	}
	return int(affected), nil
}
