package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gridironlab/valuation-engine/internal/domain/tuning"
	qb "github.com/gridironlab/valuation-engine/internal/platform/querybuilder"
)

type TuningRepository struct {
	db *sqlx.DB
}

type tuningTableModel struct {
	Category  string    `db:"category"`
	Key       string    `db:"key"`
	Value     float64   `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

var tuningSelectColumns = []string{
	"category",
	"key",
	"value",
	"updated_at",
}

func NewTuningRepository(db *sqlx.DB) *TuningRepository {
	return &TuningRepository{db: db}
}

func tuningFromRow(row tuningTableModel) tuning.Entry {
	return tuning.Entry{
		Category:  tuning.Category(row.Category),
		Key:       row.Key,
		Value:     row.Value,
		UpdatedAt: row.UpdatedAt,
	}
}

func (r *TuningRepository) ListAll(ctx context.Context) ([]tuning.Entry, error) {
	query, args, err := qb.Select(tuningSelectColumns...).From("tuning_entries").
		OrderBy("category", "key").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list tuning entries query: %w", err)
	}
	return r.list(ctx, query, args)
}

func (r *TuningRepository) ListByCategory(ctx context.Context, category tuning.Category) ([]tuning.Entry, error) {
	query, args, err := qb.Select(tuningSelectColumns...).From("tuning_entries").
		Where(qb.Eq("category", string(category))).
		OrderBy("key").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list tuning entries by category query: %w", err)
	}
	return r.list(ctx, query, args)
}

func (r *TuningRepository) list(ctx context.Context, query string, args []any) ([]tuning.Entry, error) {
	var rows []tuningTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select tuning entries: %w", err)
	}

	out := make([]tuning.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, tuningFromRow(row))
	}
	return out, nil
}

func (r *TuningRepository) Upsert(ctx context.Context, e tuning.Entry) error {
	insertModel := tuningTableModel{
		Category:  string(e.Category),
		Key:       e.Key,
		Value:     e.Value,
		UpdatedAt: e.UpdatedAt,
	}

	query, args, err := qb.InsertModel("tuning_entries", insertModel, `ON CONFLICT (category, key)
DO UPDATE SET
    value = EXCLUDED.value,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert tuning entry query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert tuning entry: %w", err)
	}
	return nil
}

func (r *TuningRepository) Delete(ctx context.Context, category tuning.Category, key string) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM tuning_entries WHERE category = $1 AND key = $2",
		string(category), key,
	); err != nil {
		return fmt.Errorf("delete tuning entry: %w", err)
	}
	return nil
}
