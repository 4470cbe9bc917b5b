package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/domain/market"
	"github.com/gridironlab/valuation-engine/internal/domain/profile"
	"github.com/gridironlab/valuation-engine/internal/domain/tuning"
	"github.com/gridironlab/valuation-engine/internal/domain/value"
	"github.com/gridironlab/valuation-engine/internal/infrastructure/repository/memory"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
	"github.com/gridironlab/valuation-engine/internal/valuation"
)

// stubAttributes answers attribute lookups from a fixed table. Players
// missing from the table degrade to neutral factors.
type stubAttributes struct {
	attrs map[string]PlayerAttributes
}

func (s stubAttributes) GetAttributes(_ context.Context, playerID string) (PlayerAttributes, bool, error) {
	a, ok := s.attrs[playerID]
	return a, ok, nil
}

func seedProfileSettings() profile.LeagueProfile {
	return profile.LeagueProfile{
		Format:    profile.FormatDynasty,
		NumTeams:  12,
		Superflex: true,
		PPR:       1.0,
		StartingSlots: map[profile.SlotType]int{
			profile.SlotQB:        1,
			profile.SlotRB:        2,
			profile.SlotWR:        3,
			profile.SlotTE:        1,
			profile.SlotFlex:      1,
			profile.SlotSuperFlex: 1,
		},
		BenchSize: 20,
	}
}

type rebuildFixture struct {
	svc          *RebuildService
	identityRepo *memory.IdentityRepository
	conflictRepo *memory.ConflictRepository
	valueRepo    *memory.ValueRepository
	formatKey    string
}

func newRebuildFixture(t *testing.T, players []identity.PlayerIdentity, ranks []market.Rank, attrs AttributeSource) rebuildFixture {
	t.Helper()

	identityRepo := memory.NewIdentityRepository(players)
	conflictRepo := memory.NewConflictRepository()
	valueRepo := memory.NewValueRepository()
	marketRepo := memory.NewMarketRepository(ranks)
	logger := logging.NewNop()

	profileSvc := NewProfileService(memory.NewProfileRepository(), nil, &seqIDGen{prefix: "prf"}, logger)
	profileSvc.now = fixedNow
	resolved, err := profileSvc.Resolve(context.Background(), seedProfileSettings())
	if err != nil {
		t.Fatalf("resolve profile: %v", err)
	}
	if resolved.FormatKey != memory.FormatKeySeed {
		t.Fatalf("derived format key %q does not match the seeded ranks key %q", resolved.FormatKey, memory.FormatKeySeed)
	}

	duplicateSvc := NewDuplicateService(identityRepo, conflictRepo, &seqIDGen{prefix: "cfl"}, logger)
	duplicateSvc.now = fixedNow
	validatorSvc := NewValidatorService(identityRepo, conflictRepo, valueRepo, nil, logger)
	tuningSvc := NewTuningService(memory.NewTuningRepository(nil), nil, logger)

	svc := NewRebuildService(
		identityRepo, marketRepo, valueRepo,
		profileSvc, validatorSvc, duplicateSvc, tuningSvc,
		attrs, &seqIDGen{prefix: "snp"}, logger,
	)
	svc.now = fixedNow

	return rebuildFixture{
		svc:          svc,
		identityRepo: identityRepo,
		conflictRepo: conflictRepo,
		valueRepo:    valueRepo,
		formatKey:    resolved.FormatKey,
	}
}

func TestRebuildService_RunRebuild_PublishesSnapshot(t *testing.T) {
	f := newRebuildFixture(t, memory.SeedIdentities(), memory.SeedMarketRanks(), nil)

	result, err := f.svc.RunRebuild(context.Background(), RebuildInput{FormatKey: f.formatKey})
	if err != nil {
		t.Fatalf("RunRebuild error: %v", err)
	}
	if result.PlayerCount != 12 {
		t.Fatalf("player count = %d, want 12", result.PlayerCount)
	}
	if result.AnchoredCount != 12 {
		t.Fatalf("anchored count = %d, want 12", result.AnchoredCount)
	}

	snapshot, ok, err := f.valueRepo.GetCurrentSnapshot(context.Background(), f.formatKey)
	if err != nil || !ok {
		t.Fatalf("no current snapshot after rebuild: %v", err)
	}
	if snapshot.ID != result.SnapshotID {
		t.Fatalf("current snapshot %s != published %s", snapshot.ID, result.SnapshotID)
	}

	values, err := f.valueRepo.ListValues(context.Background(), snapshot.ID)
	if err != nil {
		t.Fatalf("list values: %v", err)
	}
	if len(values) != 12 {
		t.Fatalf("stored %d value rows, want 12", len(values))
	}

	for i, v := range values {
		if v.Rank != i+1 {
			t.Fatalf("row %d has rank %d", i, v.Rank)
		}
		if v.FinalValue < 0 || v.FinalValue > value.MaxValue {
			t.Fatalf("player %s final value %d out of bounds", v.PlayerID, v.FinalValue)
		}
		if v.Confidence <= 0 || v.Confidence > 1 {
			t.Fatalf("player %s confidence %v out of bounds", v.PlayerID, v.Confidence)
		}
	}
	if values[0].PlayerID != "ply-wr-01" {
		t.Fatalf("rank 1 is %s, want the consensus top player", values[0].PlayerID)
	}
}

func TestRebuildService_RunRebuild_BlockedByDuplicates(t *testing.T) {
	players := memory.SeedIdentities()
	dup := testIdentity("ply-dup-01", "Patrick Mahomes", "KC", identity.PositionQB)
	dup.ExternalIDs = map[identity.Source]string{identity.SourceSleeper: "4046"}
	players = append(players, dup)

	f := newRebuildFixture(t, players, memory.SeedMarketRanks(), nil)

	_, err := f.svc.RunRebuild(context.Background(), RebuildInput{FormatKey: f.formatKey})
	if !errors.Is(err, ErrRebuildBlocked) {
		t.Fatalf("err = %v, want ErrRebuildBlocked", err)
	}

	if _, ok, _ := f.valueRepo.GetCurrentSnapshot(context.Background(), f.formatKey); ok {
		t.Fatal("blocked rebuild must not publish a snapshot")
	}
}

func TestRebuildService_RunRebuild_SnapshotFlipsAtomically(t *testing.T) {
	f := newRebuildFixture(t, memory.SeedIdentities(), memory.SeedMarketRanks(), nil)
	ctx := context.Background()

	first, err := f.svc.RunRebuild(ctx, RebuildInput{FormatKey: f.formatKey})
	if err != nil {
		t.Fatalf("first rebuild: %v", err)
	}
	second, err := f.svc.RunRebuild(ctx, RebuildInput{FormatKey: f.formatKey})
	if err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	if first.SnapshotID == second.SnapshotID {
		t.Fatal("each rebuild must mint a new snapshot")
	}

	current, ok, _ := f.valueRepo.GetCurrentSnapshot(ctx, f.formatKey)
	if !ok || current.ID != second.SnapshotID {
		t.Fatalf("current snapshot = %+v, want %s", current, second.SnapshotID)
	}
	previous, ok, _ := f.valueRepo.GetSnapshotByID(ctx, first.SnapshotID)
	if !ok {
		t.Fatal("previous snapshot must remain readable")
	}
	if previous.Current {
		t.Fatal("previous snapshot still marked current")
	}
}

func TestRebuildService_RunRebuild_AttributeFactors(t *testing.T) {
	attrs := stubAttributes{attrs: map[string]PlayerAttributes{
		"ply-rb-03": {Age: 28, InjuryStatus: valuation.InjuryOut},
	}}
	f := newRebuildFixture(t, memory.SeedIdentities(), memory.SeedMarketRanks(), attrs)

	result, err := f.svc.RunRebuild(context.Background(), RebuildInput{FormatKey: f.formatKey})
	if err != nil {
		t.Fatalf("RunRebuild error: %v", err)
	}

	values, _ := f.valueRepo.ListValues(context.Background(), result.SnapshotID)
	for _, v := range values {
		if v.PlayerID == "ply-rb-03" {
			if v.InjuryFactor != 0.5 {
				t.Fatalf("injured player injury factor = %v, want 0.5", v.InjuryFactor)
			}
			continue
		}
		if v.AgeFactor != 1.0 || v.InjuryFactor != 1.0 {
			t.Fatalf("player %s without attributes got factors %v/%v", v.PlayerID, v.AgeFactor, v.InjuryFactor)
		}
	}
}

func TestRebuildService_RunRebuild_UnrankedPlayersTrail(t *testing.T) {
	players := append(memory.SeedIdentities(),
		testIdentity("ply-wr-99", "Practice Squad Guy", "DAL", identity.PositionWR))
	f := newRebuildFixture(t, players, memory.SeedMarketRanks(), nil)

	result, err := f.svc.RunRebuild(context.Background(), RebuildInput{FormatKey: f.formatKey})
	if err != nil {
		t.Fatalf("RunRebuild error: %v", err)
	}
	if result.PlayerCount != 13 {
		t.Fatalf("player count = %d, want 13", result.PlayerCount)
	}
	if result.AnchoredCount != 12 {
		t.Fatalf("anchored count = %d, want only the ranked 12", result.AnchoredCount)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("unranked players must produce a warning")
	}

	values, _ := f.valueRepo.ListValues(context.Background(), result.SnapshotID)
	last := values[len(values)-1]
	if last.PlayerID != "ply-wr-99" || last.Rank != 13 {
		t.Fatalf("unranked player landed at %+v, want rank 13", last)
	}
}

func TestTunedMultipliers(t *testing.T) {
	cfg := tuning.Defaults()
	cfg.TEMultiplierScale = 1.2
	cfg.WRMultiplierScale = 0 // unset rows must not zero a position out

	base := map[identity.Position]float64{
		identity.PositionTE: 1.5,
		identity.PositionWR: 1.1,
	}
	got := tunedMultipliers(base, cfg)

	if diff := got[identity.PositionTE] - 1.8; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("TE multiplier = %v, want 1.5 scaled by 1.2", got[identity.PositionTE])
	}
	if got[identity.PositionWR] != 1.1 {
		t.Fatalf("WR multiplier = %v, want profile value untouched", got[identity.PositionWR])
	}
	if _, ok := got[identity.PositionQB]; ok {
		t.Fatal("positions absent from the profile must stay absent")
	}
}

func TestTunedElasticityCaps(t *testing.T) {
	cfg := tuning.Defaults()
	cfg.ElasticityCapRB = 0.20
	cfg.ElasticityCapQB = 0 // unset rows keep the built-in bounds
	cfg.ElasticityCapTE = 0.02

	got := tunedElasticityCaps(valuation.DefaultElasticityCaps(), cfg)

	rb := got.Caps[identity.PositionRB]
	if rb.Max != 0.20 || rb.Min != 0.15 {
		t.Fatalf("RB bounds = %+v, want max tuned to 0.20 with floor kept", rb)
	}
	qb := got.Caps[identity.PositionQB]
	if qb != valuation.DefaultElasticityCaps().Caps[identity.PositionQB] {
		t.Fatalf("QB bounds = %+v, want untouched defaults", qb)
	}
	te := got.Caps[identity.PositionTE]
	if te.Max != 0.02 || te.Min != 0.02 {
		t.Fatalf("TE bounds = %+v, want floor lowered to the tuned cap", te)
	}
}

func TestRebuildService_RunRebuild_TunedMultiplierScaleLiftsPosition(t *testing.T) {
	baselineFixture := newRebuildFixture(t, memory.SeedIdentities(), memory.SeedMarketRanks(), nil)
	baseline, err := baselineFixture.svc.RunRebuild(context.Background(), RebuildInput{FormatKey: baselineFixture.formatKey})
	if err != nil {
		t.Fatalf("baseline rebuild: %v", err)
	}
	baselineValues, _ := baselineFixture.valueRepo.ListValues(context.Background(), baseline.SnapshotID)
	baselineByPlayer := make(map[string]value.PlayerValue, len(baselineValues))
	for _, v := range baselineValues {
		baselineByPlayer[v.PlayerID] = v
	}

	tuned := newRebuildFixture(t, memory.SeedIdentities(), memory.SeedMarketRanks(), nil)
	tuned.svc.tuningSvc = NewTuningService(memory.NewTuningRepository([]tuning.Entry{
		{Category: tuning.CategoryMultipliers, Key: "te_scale", Value: 1.2},
	}), nil, logging.NewNop())
	result, err := tuned.svc.RunRebuild(context.Background(), RebuildInput{FormatKey: tuned.formatKey})
	if err != nil {
		t.Fatalf("tuned rebuild: %v", err)
	}
	tunedValues, _ := tuned.valueRepo.ListValues(context.Background(), result.SnapshotID)

	liftedTE := false
	for _, v := range tunedValues {
		base, ok := baselineByPlayer[v.PlayerID]
		if !ok {
			t.Fatalf("player %s missing from the baseline snapshot", v.PlayerID)
		}
		switch {
		case v.Position == identity.PositionTE:
			if v.MultipliedValue < base.MultipliedValue {
				t.Fatalf("TE %s multiplied value %d fell below baseline %d", v.PlayerID, v.MultipliedValue, base.MultipliedValue)
			}
			if v.MultipliedValue > base.MultipliedValue {
				liftedTE = true
			}
		default:
			if v.MultipliedValue != base.MultipliedValue {
				t.Fatalf("%s %s multiplied value moved %d -> %d without a tuned scale", v.Position, v.PlayerID, base.MultipliedValue, v.MultipliedValue)
			}
		}
	}
	if !liftedTE {
		t.Fatal("te_scale 1.2 must lift at least one TE multiplied value")
	}
}

func TestRebuildService_RunRebuild_UnknownFormat(t *testing.T) {
	f := newRebuildFixture(t, memory.SeedIdentities(), memory.SeedMarketRanks(), nil)

	_, err := f.svc.RunRebuild(context.Background(), RebuildInput{FormatKey: "redraft_10team_1qb_full_qb1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
