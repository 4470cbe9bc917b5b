package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gridironlab/valuation-engine/internal/domain/market"
	qb "github.com/gridironlab/valuation-engine/internal/platform/querybuilder"
)

type MarketRepository struct {
	db *sqlx.DB
}

type marketRankTableModel struct {
	PlayerID             string          `db:"player_id"`
	FormatKey            string          `db:"format_key"`
	Rank                 int             `db:"rank"`
	ProductionPercentile sql.NullFloat64 `db:"production_percentile"`
	Source               string          `db:"source"`
	FetchedAt            time.Time       `db:"fetched_at"`
}

var marketRankSelectColumns = []string{
	"player_id",
	"format_key",
	"rank",
	"production_percentile",
	"source",
	"fetched_at",
}

func NewMarketRepository(db *sqlx.DB) *MarketRepository {
	return &MarketRepository{db: db}
}

func marketRankFromRow(row marketRankTableModel) market.Rank {
	return market.Rank{
		PlayerID:             row.PlayerID,
		FormatKey:            row.FormatKey,
		Rank:                 row.Rank,
		ProductionPercentile: nullFloatToPtr(row.ProductionPercentile),
		Source:               row.Source,
		FetchedAt:            row.FetchedAt,
	}
}

func (r *MarketRepository) GetRank(ctx context.Context, playerID, formatKey string) (market.Rank, bool, error) {
	query, args, err := qb.Select(marketRankSelectColumns...).From("market_ranks").
		Where(
			qb.Eq("player_id", playerID),
			qb.Eq("format_key", formatKey),
		).
		ToSQL()
	if err != nil {
		return market.Rank{}, false, fmt.Errorf("build get market rank query: %w", err)
	}

	var row marketRankTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return market.Rank{}, false, nil
		}
		return market.Rank{}, false, fmt.Errorf("get market rank: %w", err)
	}
	return marketRankFromRow(row), true, nil
}

func (r *MarketRepository) ListRanks(ctx context.Context, formatKey string) ([]market.Rank, error) {
	query, args, err := qb.Select(marketRankSelectColumns...).From("market_ranks").
		Where(qb.Eq("format_key", formatKey)).
		OrderBy("rank").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list market ranks query: %w", err)
	}

	var rows []marketRankTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list market ranks: %w", err)
	}

	out := make([]market.Rank, 0, len(rows))
	for _, row := range rows {
		out = append(out, marketRankFromRow(row))
	}
	return out, nil
}

// UpsertBatch refreshes a feed's ranks in one transaction, so readers
// never see a half-applied feed pull.
func (r *MarketRepository) UpsertBatch(ctx context.Context, ranks []market.Rank) error {
	if len(ranks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert market ranks: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, rank := range ranks {
		insertModel := marketRankTableModel{
			PlayerID:             rank.PlayerID,
			FormatKey:            rank.FormatKey,
			Rank:                 rank.Rank,
			ProductionPercentile: nullableFloat(rank.ProductionPercentile),
			Source:               rank.Source,
			FetchedAt:            rank.FetchedAt,
		}

		query, args, err := qb.InsertModel("market_ranks", insertModel, `ON CONFLICT (player_id, format_key)
DO UPDATE SET
    rank = EXCLUDED.rank,
    production_percentile = EXCLUDED.production_percentile,
    source = EXCLUDED.source,
    fetched_at = EXCLUDED.fetched_at`)
		if err != nil {
			return fmt.Errorf("build upsert market rank query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert market rank for %s: %w", rank.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert market ranks: %w", err)
	}
	return nil
}
