package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/gridironlab/valuation-engine/internal/domain/profile"
	qb "github.com/gridironlab/valuation-engine/internal/platform/querybuilder"
)

type ProfileRepository struct {
	db *sqlx.DB
}

var profileSelectColumns = []string{
	"id",
	"format_key",
	"format",
	"num_teams",
	"superflex",
	"ppr",
	"te_premium_ppr",
	"idp_enabled",
	"idp_preset",
	"starting_slots",
	"bench_size",
	"multipliers",
	"created_at",
	"updated_at",
}

func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func profileBaseSelectBuilder() *qb.SelectBuilder {
	return qb.Select(profileSelectColumns...).From("league_profiles")
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (profile.LeagueProfile, bool, error) {
	query, args, err := profileBaseSelectBuilder().
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return profile.LeagueProfile{}, false, fmt.Errorf("build get profile query: %w", err)
	}
	return r.get(ctx, query, args)
}

func (r *ProfileRepository) GetByFormatKey(ctx context.Context, formatKey string) (profile.LeagueProfile, bool, error) {
	query, args, err := profileBaseSelectBuilder().
		Where(qb.Eq("format_key", formatKey)).
		ToSQL()
	if err != nil {
		return profile.LeagueProfile{}, false, fmt.Errorf("build get profile by format key query: %w", err)
	}
	return r.get(ctx, query, args)
}

func (r *ProfileRepository) get(ctx context.Context, query string, args []any) (profile.LeagueProfile, bool, error) {
	var row profileTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return profile.LeagueProfile{}, false, nil
		}
		return profile.LeagueProfile{}, false, fmt.Errorf("get profile: %w", err)
	}

	p, err := profileFromRow(row)
	if err != nil {
		return profile.LeagueProfile{}, false, err
	}
	return p, true, nil
}

func (r *ProfileRepository) ListAll(ctx context.Context) ([]profile.LeagueProfile, error) {
	query, args, err := profileBaseSelectBuilder().
		OrderBy("created_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list profiles query: %w", err)
	}

	var rows []profileTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	out := make([]profile.LeagueProfile, 0, len(rows))
	for _, row := range rows {
		p, err := profileFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *ProfileRepository) Insert(ctx context.Context, p profile.LeagueProfile) error {
	insertModel, err := profileToInsertModel(p)
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel("league_profiles", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert profile query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) SaveMultipliers(ctx context.Context, id string, multipliers []profile.PositionMultiplier) error {
	encoded, err := sonic.Marshal(multipliers)
	if err != nil {
		return fmt.Errorf("encode multipliers for profile %s: %w", id, err)
	}

	query, args, err := qb.Update("league_profiles").
		Set("multipliers", encoded).
		Set("updated_at", time.Now().UTC()).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build save multipliers query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save profile multipliers: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read save multipliers result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile %s not found", id)
	}
	return nil
}
