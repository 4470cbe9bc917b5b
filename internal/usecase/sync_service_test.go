package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/infrastructure/repository/memory"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
)

type stubPlayerFeed struct {
	records []identity.IncomingRecord
	err     error
}

func (f *stubPlayerFeed) FetchPlayers(context.Context) ([]identity.IncomingRecord, error) {
	return f.records, f.err
}

type stubRankFeed struct {
	ranks []ExternalRank
	err   error
}

func (f *stubRankFeed) FetchRanks(context.Context, string) ([]ExternalRank, error) {
	return f.ranks, f.err
}

func newSyncService(players []identity.PlayerIdentity, playerFeed PlayerFeed, rankFeed RankFeed) (*SyncService, *memory.IdentityRepository, *memory.MarketRepository) {
	identitySvc, identityRepo, _ := newIdentityService(players)
	marketRepo := memory.NewMarketRepository(nil)
	svc := NewSyncService(identitySvc, identityRepo, marketRepo, playerFeed, rankFeed, logging.NewNop())
	svc.now = fixedNow
	return svc, identityRepo, marketRepo
}

func TestSyncService_SyncIdentities_CreatesAndUpdates(t *testing.T) {
	existing := testIdentity("p1", "Patrick Mahomes", "KC", identity.PositionQB)
	existing.ExternalIDs = map[identity.Source]string{identity.SourceSleeper: "4046"}

	feed := &stubPlayerFeed{records: []identity.IncomingRecord{
		{
			Source:      identity.SourceSleeper,
			ExternalIDs: map[identity.Source]string{identity.SourceSleeper: "4046"},
			FullName:    "Patrick Mahomes",
			Team:        "KC",
			Position:    identity.PositionQB,
			Confidence:  1.0,
			SeenAt:      fixedNow(),
		},
		{
			Source:      identity.SourceSleeper,
			ExternalIDs: map[identity.Source]string{identity.SourceSleeper: "11565"},
			FullName:    "Malik Nabers",
			Team:        "NYG",
			Position:    identity.PositionWR,
			Confidence:  1.0,
			SeenAt:      fixedNow(),
		},
	}}

	svc, identityRepo, _ := newSyncService([]identity.PlayerIdentity{existing}, feed, nil)

	result, err := svc.SyncIdentities(context.Background())
	if err != nil {
		t.Fatalf("sync identities: %v", err)
	}
	if result.Fetched != 2 {
		t.Fatalf("fetched = %d, want 2", result.Fetched)
	}
	if result.Updated != 1 {
		t.Fatalf("updated = %d, want 1", result.Updated)
	}
	if result.Created != 1 {
		t.Fatalf("created = %d, want 1", result.Created)
	}

	created, found, err := identityRepo.GetByExternalID(context.Background(), identity.SourceSleeper, "11565")
	if err != nil || !found {
		t.Fatalf("expected new identity persisted, found=%v err=%v", found, err)
	}
	if created.FullName != "Malik Nabers" {
		t.Fatalf("unexpected created name: %q", created.FullName)
	}
}

func TestSyncService_SyncIdentities_FeedFailure(t *testing.T) {
	feed := &stubPlayerFeed{err: errors.New("connection refused")}
	svc, _, _ := newSyncService(nil, feed, nil)

	if _, err := svc.SyncIdentities(context.Background()); err == nil {
		t.Fatalf("expected error when feed fails")
	}
}

func TestSyncService_SyncMarketRanks_TranslatesExternalIDs(t *testing.T) {
	mahomes := testIdentity("p1", "Patrick Mahomes", "KC", identity.PositionQB)
	mahomes.ExternalIDs = map[identity.Source]string{identity.SourceSleeper: "4046"}
	chase := testIdentity("p2", "Ja'Marr Chase", "CIN", identity.PositionWR)
	chase.ExternalIDs = map[identity.Source]string{identity.SourceSleeper: "6786"}

	pp := 0.97
	feed := &stubRankFeed{ranks: []ExternalRank{
		{IDSource: identity.SourceSleeper, ExternalID: "6786", Rank: 1, ProductionPercentile: &pp, Provider: "fantasycalc"},
		{IDSource: identity.SourceSleeper, ExternalID: "4046", Rank: 2, Provider: "fantasycalc"},
		{IDSource: identity.SourceSleeper, ExternalID: "0000", Rank: 3, Provider: "fantasycalc"},
	}}

	svc, _, marketRepo := newSyncService([]identity.PlayerIdentity{mahomes, chase}, nil, feed)

	result, err := svc.SyncMarketRanks(context.Background(), "dynasty_12team_sf_full_qb1_rb2_wr3")
	if err != nil {
		t.Fatalf("sync market ranks: %v", err)
	}
	if result.Fetched != 3 {
		t.Fatalf("fetched = %d, want 3", result.Fetched)
	}
	if result.Imported != 2 {
		t.Fatalf("imported = %d, want 2", result.Imported)
	}
	if result.Unmatched != 1 {
		t.Fatalf("unmatched = %d, want 1", result.Unmatched)
	}

	rank, found, err := marketRepo.GetRank(context.Background(), "p2", "dynasty_12team_sf_full_qb1_rb2_wr3")
	if err != nil || !found {
		t.Fatalf("expected rank stored for p2, found=%v err=%v", found, err)
	}
	if rank.Rank != 1 {
		t.Fatalf("unexpected rank: %d", rank.Rank)
	}
	if rank.Source != "fantasycalc" {
		t.Fatalf("unexpected source: %s", rank.Source)
	}
	if !rank.FetchedAt.Equal(fixedNow()) {
		t.Fatalf("unexpected fetched at: %s", rank.FetchedAt)
	}
}

func TestSyncService_SyncMarketRanks_RequiresFormatKey(t *testing.T) {
	svc, _, _ := newSyncService(nil, nil, &stubRankFeed{})
	if _, err := svc.SyncMarketRanks(context.Background(), ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
