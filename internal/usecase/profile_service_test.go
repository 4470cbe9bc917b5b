package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/domain/profile"
	"github.com/gridironlab/valuation-engine/internal/infrastructure/repository/memory"
	"github.com/gridironlab/valuation-engine/internal/platform/cache"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
)

func newProfileService(repo *memory.ProfileRepository) *ProfileService {
	svc := NewProfileService(repo, cache.NewStoreWithClock(time.Hour, fixedNow), &seqIDGen{prefix: "prf"}, logging.NewNop())
	svc.now = fixedNow
	return svc
}

func TestProfileService_Resolve_DeduplicatesIdenticalSettings(t *testing.T) {
	repo := memory.NewProfileRepository()
	svc := newProfileService(repo)
	ctx := context.Background()

	first, err := svc.Resolve(ctx, seedProfileSettings())
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := svc.Resolve(ctx, seedProfileSettings())
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("identical settings resolved to two profiles: %s and %s", first.ID, second.ID)
	}

	all, _ := repo.ListAll(ctx)
	if len(all) != 1 {
		t.Fatalf("stored %d profiles, want 1", len(all))
	}
	if len(first.Multipliers) == 0 {
		t.Fatal("new profile must carry computed multipliers")
	}
}

func TestProfileService_Resolve_DistinctSettingsSplit(t *testing.T) {
	svc := newProfileService(memory.NewProfileRepository())
	ctx := context.Background()

	sf, err := svc.Resolve(ctx, seedProfileSettings())
	if err != nil {
		t.Fatalf("resolve superflex: %v", err)
	}

	oneQB := seedProfileSettings()
	oneQB.Superflex = false
	oneQB.StartingSlots = map[profile.SlotType]int{
		profile.SlotQB: 1, profile.SlotRB: 2, profile.SlotWR: 3,
		profile.SlotTE: 1, profile.SlotFlex: 1,
	}
	single, err := svc.Resolve(ctx, oneQB)
	if err != nil {
		t.Fatalf("resolve 1qb: %v", err)
	}

	if sf.FormatKey == single.FormatKey {
		t.Fatalf("superflex and 1qb leagues collapsed to one key %q", sf.FormatKey)
	}
}

func TestProfileService_Resolve_BackfillsMultipliers(t *testing.T) {
	repo := memory.NewProfileRepository()
	ctx := context.Background()

	// A legacy row without stored multipliers.
	legacy := seedProfileSettings()
	legacy.ID = "prf-legacy"
	legacy.FormatKey = profile.DeriveFormatKey(legacy)
	if err := repo.Insert(ctx, legacy); err != nil {
		t.Fatalf("insert legacy profile: %v", err)
	}

	svc := newProfileService(repo)
	got, err := svc.Resolve(ctx, seedProfileSettings())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got.ID != "prf-legacy" {
		t.Fatalf("resolved to %s, want the legacy row", got.ID)
	}
	if len(got.Multipliers) == 0 {
		t.Fatal("legacy profile multipliers not backfilled")
	}

	stored, _, _ := repo.GetByID(ctx, "prf-legacy")
	if len(stored.Multipliers) == 0 {
		t.Fatal("backfilled multipliers not persisted")
	}
	hasQB := false
	for _, m := range stored.Multipliers {
		if m.Position == identity.PositionQB && m.Multiplier > 1.0 {
			hasQB = true
		}
	}
	if !hasQB {
		t.Fatal("superflex profile must carry a qb premium multiplier")
	}
}

func TestProfileService_Resolve_RejectsInvalidSettings(t *testing.T) {
	svc := newProfileService(memory.NewProfileRepository())

	bad := seedProfileSettings()
	bad.NumTeams = 1
	if _, err := svc.Resolve(context.Background(), bad); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestProfileService_GetByFormatKey_NotFound(t *testing.T) {
	svc := newProfileService(memory.NewProfileRepository())

	_, err := svc.GetByFormatKey(context.Background(), "redraft_10team_1qb_full_qb1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
