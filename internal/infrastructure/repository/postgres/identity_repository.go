package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	qb "github.com/gridironlab/valuation-engine/internal/platform/querybuilder"
)

type IdentityRepository struct {
	db *sqlx.DB
}

var identitySelectColumns = []string{
	"id",
	"external_ids",
	"full_name",
	"normalized_name",
	"birth_year",
	"team",
	"position",
	"sub_position",
	"status",
	"last_seen_source",
	"last_seen_at",
	"created_at",
	"updated_at",
}

func NewIdentityRepository(db *sqlx.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func identityBaseSelectBuilder() *qb.SelectBuilder {
	return qb.Select(identitySelectColumns...).From("player_identities")
}

func (r *IdentityRepository) GetByID(ctx context.Context, id string) (identity.PlayerIdentity, bool, error) {
	query, args, err := identityBaseSelectBuilder().
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return identity.PlayerIdentity{}, false, fmt.Errorf("build get identity query: %w", err)
	}

	var row identityTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return identity.PlayerIdentity{}, false, nil
		}
		return identity.PlayerIdentity{}, false, fmt.Errorf("get identity: %w", err)
	}

	p, err := identityFromRow(row)
	if err != nil {
		return identity.PlayerIdentity{}, false, err
	}
	return p, true, nil
}

func (r *IdentityRepository) GetByExternalID(ctx context.Context, source identity.Source, externalID string) (identity.PlayerIdentity, bool, error) {
	query, args, err := identityBaseSelectBuilder().
		Where(qb.Expr("external_ids ->> ? = ?", string(source), externalID)).
		ToSQL()
	if err != nil {
		return identity.PlayerIdentity{}, false, fmt.Errorf("build get identity by external id query: %w", err)
	}

	var row identityTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return identity.PlayerIdentity{}, false, nil
		}
		return identity.PlayerIdentity{}, false, fmt.Errorf("get identity by external id: %w", err)
	}

	p, err := identityFromRow(row)
	if err != nil {
		return identity.PlayerIdentity{}, false, err
	}
	return p, true, nil
}

func (r *IdentityRepository) ListByNormalizedName(ctx context.Context, normalizedName string) ([]identity.PlayerIdentity, error) {
	query, args, err := identityBaseSelectBuilder().
		Where(qb.Eq("normalized_name", normalizedName)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list identities by name query: %w", err)
	}
	return r.list(ctx, query, args)
}

func (r *IdentityRepository) ListByStatus(ctx context.Context, status identity.Status) ([]identity.PlayerIdentity, error) {
	query, args, err := identityBaseSelectBuilder().
		Where(qb.Eq("status", string(status))).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list identities by status query: %w", err)
	}
	return r.list(ctx, query, args)
}

func (r *IdentityRepository) ListAll(ctx context.Context) ([]identity.PlayerIdentity, error) {
	query, args, err := identityBaseSelectBuilder().
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list identities query: %w", err)
	}
	return r.list(ctx, query, args)
}

func (r *IdentityRepository) list(ctx context.Context, query string, args []any) ([]identity.PlayerIdentity, error) {
	var rows []identityTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select identities: %w", err)
	}

	out := make([]identity.PlayerIdentity, 0, len(rows))
	for _, row := range rows {
		p, err := identityFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *IdentityRepository) Upsert(ctx context.Context, p identity.PlayerIdentity) error {
	insertModel, err := identityToInsertModel(p)
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel("player_identities", insertModel, `ON CONFLICT (id)
DO UPDATE SET
    external_ids = EXCLUDED.external_ids,
    full_name = EXCLUDED.full_name,
    normalized_name = EXCLUDED.normalized_name,
    birth_year = EXCLUDED.birth_year,
    team = EXCLUDED.team,
    position = EXCLUDED.position,
    sub_position = EXCLUDED.sub_position,
    status = EXCLUDED.status,
    last_seen_source = EXCLUDED.last_seen_source,
    last_seen_at = EXCLUDED.last_seen_at,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build identity upsert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert identity: %w", err)
	}
	return nil
}

func (r *IdentityRepository) UpdateStatus(ctx context.Context, id string, status identity.Status) error {
	query, args, err := qb.Update("player_identities").
		Set("status", string(status)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build identity status update query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update identity status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read identity status update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("player %s not found", id)
	}
	return nil
}

// MergeIdentities folds dropID into keepID in one transaction: the
// keeper absorbs external ids it is missing and the duplicate is
// retired. Concurrent readers see either both rows live or the merge
// complete, never a half-moved state.
func (r *IdentityRepository) MergeIdentities(ctx context.Context, keepID, dropID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx merge identities: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	selectQuery, selectArgs, err := identityBaseSelectBuilder().
		Where(qb.In("id", []any{keepID, dropID})).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build merge select query: %w", err)
	}

	var rows []identityTableModel
	if err := tx.SelectContext(ctx, &rows, selectQuery, selectArgs...); err != nil {
		return fmt.Errorf("select identities for merge: %w", err)
	}
	if len(rows) != 2 {
		return fmt.Errorf("merge needs both players, found %d of %s and %s", len(rows), keepID, dropID)
	}

	var keep, drop identity.PlayerIdentity
	for _, row := range rows {
		p, err := identityFromRow(row)
		if err != nil {
			return err
		}
		if p.ID == keepID {
			keep = p
		} else {
			drop = p
		}
	}

	if keep.ExternalIDs == nil {
		keep.ExternalIDs = make(map[identity.Source]string)
	}
	for source, externalID := range drop.ExternalIDs {
		if _, exists := keep.ExternalIDs[source]; !exists {
			keep.ExternalIDs[source] = externalID
		}
	}

	mergedIDs, err := sonic.Marshal(keep.ExternalIDs)
	if err != nil {
		return fmt.Errorf("encode merged external ids: %w", err)
	}

	now := time.Now().UTC()
	keepQuery, keepArgs, err := qb.Update("player_identities").
		Set("external_ids", mergedIDs).
		Set("updated_at", now).
		Where(qb.Eq("id", keepID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build merge keeper update query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, keepQuery, keepArgs...); err != nil {
		return fmt.Errorf("update merge keeper: %w", err)
	}

	dropQuery, dropArgs, err := qb.Update("player_identities").
		Set("status", string(identity.StatusRetired)).
		Set("updated_at", now).
		Where(qb.Eq("id", dropID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build merge duplicate update query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, dropQuery, dropArgs...); err != nil {
		return fmt.Errorf("retire merge duplicate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit merge identities: %w", err)
	}
	return nil
}
