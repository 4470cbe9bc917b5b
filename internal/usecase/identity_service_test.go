package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/infrastructure/repository/memory"
	"github.com/gridironlab/valuation-engine/internal/namematch"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
)

// seqIDGen hands out deterministic ids for tests.
type seqIDGen struct {
	prefix string
	n      int
}

func (g *seqIDGen) NewID() (string, error) {
	g.n++
	return fmt.Sprintf("%s-%03d", g.prefix, g.n), nil
}

func fixedNow() time.Time {
	return time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
}

func yearPtr(v int) *int { return &v }

func testIdentity(id, name, team string, pos identity.Position) identity.PlayerIdentity {
	return identity.PlayerIdentity{
		ID:             id,
		FullName:       name,
		NormalizedName: namematch.Normalize(name),
		Team:           team,
		Position:       pos,
		Status:         identity.StatusActive,
		LastSeenSource: identity.SourceSleeper,
		LastSeenAt:     fixedNow().Add(-24 * time.Hour),
	}
}

func newIdentityService(players []identity.PlayerIdentity) (*IdentityService, *memory.IdentityRepository, *memory.ConflictRepository) {
	identityRepo := memory.NewIdentityRepository(players)
	conflictRepo := memory.NewConflictRepository()
	svc := NewIdentityService(identityRepo, conflictRepo, nil, &seqIDGen{prefix: "id"}, logging.NewNop())
	svc.now = fixedNow
	return svc, identityRepo, conflictRepo
}

func TestIdentityService_Match_ExternalIDWinsOverName(t *testing.T) {
	existing := testIdentity("p1", "Michael Williams", "LAC", identity.PositionWR)
	existing.ExternalIDs = map[identity.Source]string{identity.SourceSleeper: "123"}
	svc, _, _ := newIdentityService([]identity.PlayerIdentity{existing})

	got, err := svc.Match(context.Background(), identity.IncomingRecord{
		Source:      identity.SourceSleeper,
		ExternalIDs: map[identity.Source]string{identity.SourceSleeper: "123"},
		FullName:    "Mike Williams",
		Position:    identity.PositionWR,
	})
	if err != nil {
		t.Fatalf("Match error: %v", err)
	}
	if !got.Matched || got.PlayerID != "p1" {
		t.Fatalf("expected match on p1, got %+v", got)
	}
	if got.Confidence != 1.0 {
		t.Fatalf("external id match confidence = %v, want 1.0", got.Confidence)
	}
	if got.Method != "sleeper_id" {
		t.Fatalf("method = %s, want sleeper_id", got.Method)
	}
}

func TestIdentityService_Match_NameTeamPositionUnique(t *testing.T) {
	svc, _, _ := newIdentityService([]identity.PlayerIdentity{
		testIdentity("p1", "Josh Allen", "BUF", identity.PositionQB),
		testIdentity("p2", "Josh Allen", "JAX", identity.PositionLB),
	})

	got, err := svc.Match(context.Background(), identity.IncomingRecord{
		Source:   identity.SourceESPN,
		FullName: "Josh Allen",
		Team:     "BUF",
		Position: identity.PositionQB,
	})
	if err != nil {
		t.Fatalf("Match error: %v", err)
	}
	if !got.Matched || got.PlayerID != "p1" {
		t.Fatalf("expected p1, got %+v", got)
	}
	if got.Method != MethodNameTeamPos {
		t.Fatalf("method = %s, want %s", got.Method, MethodNameTeamPos)
	}
}

func TestIdentityService_Match_AmbiguityNeverGuesses(t *testing.T) {
	svc, _, _ := newIdentityService([]identity.PlayerIdentity{
		testIdentity("p1", "Lamar Jackson", "BAL", identity.PositionDB),
		testIdentity("p2", "Lamar Jackson", "BAL", identity.PositionDB),
	})

	got, err := svc.Match(context.Background(), identity.IncomingRecord{
		Source:   identity.SourceESPN,
		FullName: "Lamar Jackson",
		Team:     "BAL",
		Position: identity.PositionDB,
	})
	if err != nil {
		t.Fatalf("Match error: %v", err)
	}
	if got.Matched {
		t.Fatalf("two equal candidates must not match, got %+v", got)
	}
	if len(got.Conflicts) == 0 {
		t.Fatal("ambiguity must surface conflicts")
	}
}

func TestIdentityService_Match_FuzzyRequiresSeparation(t *testing.T) {
	svc, _, _ := newIdentityService([]identity.PlayerIdentity{
		testIdentity("p1", "Kenneth Walker", "SEA", identity.PositionRB),
	})

	got, err := svc.Match(context.Background(), identity.IncomingRecord{
		Source:   identity.SourceFantasyPros,
		FullName: "Kenneth Walker III",
		Position: identity.PositionRB,
	})
	if err != nil {
		t.Fatalf("Match error: %v", err)
	}
	// Suffix stripping makes this an exact normalized-name hit once
	// the name+position rung runs.
	if !got.Matched || got.PlayerID != "p1" {
		t.Fatalf("expected fuzzy/name match on p1, got %+v", got)
	}
}

func TestIdentityService_Upsert_CreatesWhenNoMatch(t *testing.T) {
	svc, identityRepo, _ := newIdentityService(nil)

	got, err := svc.Upsert(context.Background(), identity.IncomingRecord{
		Source:      identity.SourceSleeper,
		ExternalIDs: map[identity.Source]string{identity.SourceSleeper: "999"},
		FullName:    "Rome Odunze",
		Team:        "chi",
		Position:    identity.PositionWR,
		BirthYear:   yearPtr(2002),
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if !got.Created || got.PlayerID == "" {
		t.Fatalf("expected creation, got %+v", got)
	}

	stored, ok, err := identityRepo.GetByID(context.Background(), got.PlayerID)
	if err != nil || !ok {
		t.Fatalf("created player not stored: %v", err)
	}
	if stored.Team != "CHI" {
		t.Fatalf("team = %q, want normalized CHI", stored.Team)
	}
	if stored.NormalizedName != "rome odunze" {
		t.Fatalf("normalized name = %q", stored.NormalizedName)
	}
}

func TestIdentityService_Upsert_BackfillsExternalIDs(t *testing.T) {
	existing := testIdentity("p1", "Justin Jefferson", "MIN", identity.PositionWR)
	existing.ExternalIDs = map[identity.Source]string{identity.SourceSleeper: "6794"}
	svc, identityRepo, _ := newIdentityService([]identity.PlayerIdentity{existing})

	got, err := svc.Upsert(context.Background(), identity.IncomingRecord{
		Source:      identity.SourceESPN,
		ExternalIDs: map[identity.Source]string{identity.SourceESPN: "esp-42"},
		FullName:    "Justin Jefferson",
		Team:        "MIN",
		Position:    identity.PositionWR,
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if !got.Matched || got.Created {
		t.Fatalf("expected a match, got %+v", got)
	}

	stored, _, _ := identityRepo.GetByID(context.Background(), "p1")
	if espnID, ok := stored.ExternalID(identity.SourceESPN); !ok || espnID != "esp-42" {
		t.Fatalf("espn id not backfilled: %+v", stored.ExternalIDs)
	}
	if sleeperID, _ := stored.ExternalID(identity.SourceSleeper); sleeperID != "6794" {
		t.Fatal("existing external id must survive the backfill")
	}
}

func TestIdentityService_Upsert_RejectsWeakTeamUpdate(t *testing.T) {
	existing := testIdentity("p1", "Tony Pollard", "TEN", identity.PositionRB)
	svc, identityRepo, _ := newIdentityService([]identity.PlayerIdentity{existing})

	got, err := svc.Upsert(context.Background(), identity.IncomingRecord{
		Source:     identity.SourceUserInput,
		FullName:   "Tony Pollard",
		Team:       "DAL",
		Position:   identity.PositionRB,
		Confidence: 1.0,
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if len(got.Rejected) != 1 || got.Rejected[0].Field != "team" {
		t.Fatalf("expected one team rejection, got %+v", got.Rejected)
	}

	stored, _, _ := identityRepo.GetByID(context.Background(), "p1")
	if stored.Team != "TEN" {
		t.Fatalf("team changed to %q by a low-priority source", stored.Team)
	}
}

func TestIdentityService_Upsert_ConflictsBlockCreation(t *testing.T) {
	svc, identityRepo, conflictRepo := newIdentityService([]identity.PlayerIdentity{
		testIdentity("p1", "Lamar Jackson", "BAL", identity.PositionDB),
		testIdentity("p2", "Lamar Jackson", "BAL", identity.PositionDB),
	})

	got, err := svc.Upsert(context.Background(), identity.IncomingRecord{
		Source:   identity.SourceESPN,
		FullName: "Lamar Jackson",
		Team:     "BAL",
		Position: identity.PositionDB,
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if got.Created || got.Matched {
		t.Fatalf("ambiguous upsert must not create or match, got %+v", got)
	}

	open, _ := conflictRepo.ListOpen(context.Background())
	if len(open) == 0 {
		t.Fatal("ambiguity conflicts must be persisted")
	}
	all, _ := identityRepo.ListAll(context.Background())
	if len(all) != 2 {
		t.Fatalf("universe grew to %d players on an ambiguous record", len(all))
	}
}

func TestIdentityService_RetireStale(t *testing.T) {
	fresh := testIdentity("p1", "Fresh Player", "KC", identity.PositionWR)
	fresh.LastSeenAt = fixedNow().Add(-30 * 24 * time.Hour)

	stale := testIdentity("p2", "Stale Player", "", identity.PositionRB)
	stale.LastSeenAt = fixedNow().Add(-identity.StalenessWindow - 24*time.Hour)

	svc, identityRepo, _ := newIdentityService([]identity.PlayerIdentity{fresh, stale})

	retired, err := svc.RetireStale(context.Background())
	if err != nil {
		t.Fatalf("RetireStale error: %v", err)
	}
	if retired != 1 {
		t.Fatalf("retired %d players, want 1", retired)
	}

	p2, _, _ := identityRepo.GetByID(context.Background(), "p2")
	if p2.Status != identity.StatusRetired {
		t.Fatalf("p2 status = %s, want retired", p2.Status)
	}
	p1, _, _ := identityRepo.GetByID(context.Background(), "p1")
	if p1.Status != identity.StatusActive {
		t.Fatal("recently seen player must stay active")
	}
}
