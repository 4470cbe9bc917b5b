package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gridironlab/valuation-engine/internal/domain/conflict"
	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/domain/value"
	"github.com/gridironlab/valuation-engine/internal/infrastructure/repository/memory"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
)

type stubRosters struct {
	ids []string
	err error
}

func (s stubRosters) ListRosteredPlayerIDs(_ context.Context) ([]string, error) {
	return s.ids, s.err
}

func newValidator(players []identity.PlayerIdentity, conflictRepo *memory.ConflictRepository, valueRepo *memory.ValueRepository, rosters RosterSource) *ValidatorService {
	if conflictRepo == nil {
		conflictRepo = memory.NewConflictRepository()
	}
	if valueRepo == nil {
		valueRepo = memory.NewValueRepository()
	}
	return NewValidatorService(memory.NewIdentityRepository(players), conflictRepo, valueRepo, rosters, logging.NewNop())
}

func TestValidatorService_EmptyUniverseIsCritical(t *testing.T) {
	svc := newValidator(nil, nil, nil, nil)

	result, err := svc.Validate(context.Background(), testFormatKey)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if result.Valid || len(result.Critical) == 0 {
		t.Fatalf("empty universe passed validation: %+v", result)
	}
}

func TestValidatorService_SmallUniverseOnlyWarns(t *testing.T) {
	svc := newValidator(memory.SeedIdentities(), nil, nil, nil)

	result, err := svc.Validate(context.Background(), testFormatKey)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("small but healthy universe failed: %+v", result.Critical)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("a universe below the active floor must warn")
	}
	if result.Stats.ActivePlayers != 12 {
		t.Fatalf("active players = %d, want 12", result.Stats.ActivePlayers)
	}
}

func TestValidatorService_BlockingConflictIsCritical(t *testing.T) {
	conflictRepo := memory.NewConflictRepository()
	_ = conflictRepo.Upsert(context.Background(), conflict.IdentityConflict{
		ID:            "cfl-1",
		PlayerID:      "ply-qb-01",
		OtherPlayerID: "ply-qb-02",
		Type:          conflict.TypeDuplicateExternalID,
		Confidence:    1.0,
		Reason:        "shared sleeper id",
	})
	svc := newValidator(memory.SeedIdentities(), conflictRepo, nil, nil)

	result, err := svc.Validate(context.Background(), testFormatKey)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if result.Valid {
		t.Fatal("blocking conflict passed validation")
	}
	if result.Stats.BlockingCount != 1 {
		t.Fatalf("blocking count = %d, want 1", result.Stats.BlockingCount)
	}

	_, err = svc.RequireValid(context.Background(), testFormatKey)
	if !errors.Is(err, ErrRebuildBlocked) {
		t.Fatalf("RequireValid err = %v, want ErrRebuildBlocked", err)
	}
}

func TestValidatorService_MediumConflictOnlyWarns(t *testing.T) {
	conflictRepo := memory.NewConflictRepository()
	_ = conflictRepo.Upsert(context.Background(), conflict.IdentityConflict{
		ID:            "cfl-1",
		PlayerID:      "ply-qb-01",
		OtherPlayerID: "ply-wr-01",
		Type:          conflict.TypePositionMismatch,
		Confidence:    0.85,
		Reason:        "same name across groups",
	})
	svc := newValidator(memory.SeedIdentities(), conflictRepo, nil, nil)

	result, err := svc.Validate(context.Background(), testFormatKey)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("medium conflict wrongly critical: %+v", result.Critical)
	}
}

func TestValidatorService_MissingRosteredPlayerIsCritical(t *testing.T) {
	svc := newValidator(memory.SeedIdentities(), nil, nil, stubRosters{ids: []string{"ply-qb-01", "ply-ghost"}})

	result, err := svc.Validate(context.Background(), testFormatKey)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if result.Valid {
		t.Fatal("missing rostered player passed validation")
	}
}

func TestValidatorService_BrokenRosterSourceDegrades(t *testing.T) {
	svc := newValidator(memory.SeedIdentities(), nil, nil, stubRosters{err: fmt.Errorf("feed down")})

	result, err := svc.Validate(context.Background(), testFormatKey)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("broken roster feed must not fail validation: %+v", result.Critical)
	}
}

func TestValidatorService_OrphanValueRows(t *testing.T) {
	valueRepo := memory.NewValueRepository()
	ctx := context.Background()

	_ = valueRepo.PublishSnapshot(ctx, value.Snapshot{ID: "snap-1", FormatKey: testFormatKey}, []value.PlayerValue{
		{PlayerID: "ply-qb-01", SnapshotID: "snap-1", FormatKey: testFormatKey, FinalValue: 9000},
		{PlayerID: "ply-deleted", SnapshotID: "snap-1", FormatKey: testFormatKey, FinalValue: 4000},
	})

	svc := newValidator(memory.SeedIdentities(), nil, valueRepo, nil)
	result, err := svc.Validate(ctx, testFormatKey)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if result.Valid {
		t.Fatal("orphan value row passed validation")
	}
	if result.Stats.OrphanValueRows != 1 {
		t.Fatalf("orphan count = %d, want 1", result.Stats.OrphanValueRows)
	}

	// The orphan row is safe to delete automatically; identities are not.
	deleted, err := svc.AutoFixSafeIssues(ctx)
	if err != nil {
		t.Fatalf("AutoFixSafeIssues error: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("auto-fix deleted %d rows, want 1", deleted)
	}

	result, err = svc.Validate(ctx, testFormatKey)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("universe still invalid after auto-fix: %+v", result.Critical)
	}
}
