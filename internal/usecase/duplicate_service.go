package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gridironlab/valuation-engine/internal/domain/conflict"
	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/namematch"
	idgen "github.com/gridironlab/valuation-engine/internal/platform/id"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
)

// Fuzzy duplicate scan bounds and boosts.
const (
	fuzzyDupFloor      = 0.90
	fuzzyDupCeiling    = 0.99
	fuzzyDupTeamBoost  = 0.05
	fuzzyDupBirthBoost = 0.03
)

// DuplicateScan is the union of every detector's findings over the
// active identity universe.
type DuplicateScan struct {
	Conflicts          []conflict.IdentityConflict
	HighConfidence     int
	MediumConfidence   int
	LowConfidence      int
	ShouldBlockRebuild bool
}

// DuplicateService runs the full duplicate detector suite.
type DuplicateService struct {
	identityRepo identity.Repository
	conflictRepo conflict.Repository
	idGen        idgen.Generator
	logger       *logging.Logger
	now          func() time.Time
}

func NewDuplicateService(
	identityRepo identity.Repository,
	conflictRepo conflict.Repository,
	idGen idgen.Generator,
	logger *logging.Logger,
) *DuplicateService {
	if logger == nil {
		logger = logging.Default()
	}

	return &DuplicateService{
		identityRepo: identityRepo,
		conflictRepo: conflictRepo,
		idGen:        idGen,
		logger:       logger,
		now:          time.Now,
	}
}

// DetectAll runs five independent detectors over the active universe,
// unions the findings, persists them, and reports whether any finding
// is strong enough to block a rebuild.
func (s *DuplicateService) DetectAll(ctx context.Context) (DuplicateScan, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DuplicateService.DetectAll")
	defer span.End()

	players, err := s.identityRepo.ListByStatus(ctx, identity.StatusActive)
	if err != nil {
		return DuplicateScan{}, fmt.Errorf("list active identities: %w", err)
	}

	found := map[string]conflict.IdentityConflict{}
	collect := func(conflicts []conflict.IdentityConflict) {
		for _, c := range conflicts {
			key := pairKey(c.PlayerID, c.OtherPlayerID, c.Type)
			if existing, ok := found[key]; !ok || c.Confidence > existing.Confidence {
				found[key] = c
			}
		}
	}

	collect(s.detectNameBirthYear(players))
	collect(s.detectSharedExternalID(players))
	collect(s.detectCrossGroupName(players))
	collect(s.detectTeamName(players))
	collect(s.detectFuzzyName(players))

	scan := DuplicateScan{}
	keys := make([]string, 0, len(found))
	for key := range found {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	now := s.now().UTC()
	for _, key := range keys {
		c := found[key]
		c.CreatedAt = now
		c.ID, err = s.idGen.NewID()
		if err != nil {
			return DuplicateScan{}, fmt.Errorf("generate conflict id: %w", err)
		}
		if err := s.conflictRepo.Upsert(ctx, c); err != nil {
			return DuplicateScan{}, fmt.Errorf("store conflict: %w", err)
		}

		scan.Conflicts = append(scan.Conflicts, c)
		switch {
		case c.Confidence >= conflict.BlockThreshold:
			scan.HighConfidence++
			scan.ShouldBlockRebuild = true
		case c.Confidence >= 0.80:
			scan.MediumConfidence++
		default:
			scan.LowConfidence++
		}
	}

	s.logger.InfoContext(ctx, "duplicate scan finished",
		"players", len(players),
		"conflicts", len(scan.Conflicts),
		"high", scan.HighConfidence,
		"blocks_rebuild", scan.ShouldBlockRebuild,
	)
	return scan, nil
}

func pairKey(a, b string, t conflict.Type) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b + "|" + string(t)
}

// orderPair keeps conflict rows deterministic regardless of scan order.
func orderPair(a, b identity.PlayerIdentity) (identity.PlayerIdentity, identity.PlayerIdentity) {
	if b.ID < a.ID {
		return b, a
	}
	return a, b
}

// detectNameBirthYear flags identical normalized names born the same
// year. A shared external id on top bumps the score to near-certain.
func (s *DuplicateService) detectNameBirthYear(players []identity.PlayerIdentity) []conflict.IdentityConflict {
	var out []conflict.IdentityConflict
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			a, b := orderPair(players[i], players[j])
			if a.NormalizedName == "" || a.NormalizedName != b.NormalizedName {
				continue
			}
			if a.BirthYear == nil || b.BirthYear == nil || *a.BirthYear != *b.BirthYear {
				continue
			}

			confidence := 0.95
			reason := fmt.Sprintf("same name %q and birth year %d", a.FullName, *a.BirthYear)
			if sharesExternalID(a, b) {
				confidence = 0.99
				reason += " with a shared external id"
			}
			out = append(out, conflict.IdentityConflict{
				PlayerID:      a.ID,
				OtherPlayerID: b.ID,
				Type:          conflict.TypeDuplicateName,
				Confidence:    confidence,
				Reason:        reason,
			})
		}
	}
	return out
}

// detectSharedExternalID flags two active identities holding the same
// id for the same source. This is definitionally one real player.
func (s *DuplicateService) detectSharedExternalID(players []identity.PlayerIdentity) []conflict.IdentityConflict {
	var out []conflict.IdentityConflict
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			a, b := orderPair(players[i], players[j])
			source, ok := sharedExternalIDSource(a, b)
			if !ok {
				continue
			}
			out = append(out, conflict.IdentityConflict{
				PlayerID:      a.ID,
				OtherPlayerID: b.ID,
				Type:          conflict.TypeDuplicateExternalID,
				Confidence:    1.0,
				Reason:        fmt.Sprintf("both hold the same %s id %q", source, a.ExternalIDs[source]),
			})
		}
	}
	return out
}

// detectCrossGroupName flags one name appearing on both sides of the
// offense/defense boundary, which is almost always a feed mixing up
// two different people.
func (s *DuplicateService) detectCrossGroupName(players []identity.PlayerIdentity) []conflict.IdentityConflict {
	var out []conflict.IdentityConflict
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			a, b := orderPair(players[i], players[j])
			if a.NormalizedName == "" || a.NormalizedName != b.NormalizedName {
				continue
			}
			ga, gb := identity.GroupOf(a.Position), identity.GroupOf(b.Position)
			if ga == gb || ga == identity.GroupSpecial || gb == identity.GroupSpecial {
				continue
			}
			out = append(out, conflict.IdentityConflict{
				PlayerID:      a.ID,
				OtherPlayerID: b.ID,
				Type:          conflict.TypePositionMismatch,
				Confidence:    0.85,
				Reason:        fmt.Sprintf("same name %q across %s and %s", a.FullName, a.Position, b.Position),
			})
		}
	}
	return out
}

// detectTeamName flags the same name on the same roster under two ids.
func (s *DuplicateService) detectTeamName(players []identity.PlayerIdentity) []conflict.IdentityConflict {
	var out []conflict.IdentityConflict
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			a, b := orderPair(players[i], players[j])
			if a.NormalizedName == "" || a.NormalizedName != b.NormalizedName {
				continue
			}
			if a.Team == "" || a.Team != b.Team {
				continue
			}
			out = append(out, conflict.IdentityConflict{
				PlayerID:      a.ID,
				OtherPlayerID: b.ID,
				Type:          conflict.TypeTeamMismatch,
				Confidence:    0.98,
				Reason:        fmt.Sprintf("same name %q on the same team %s under two ids", a.FullName, a.Team),
			})
		}
	}
	return out
}

// detectFuzzyName flags near-identical spellings at the same position,
// boosted when the team or birth year also agrees.
func (s *DuplicateService) detectFuzzyName(players []identity.PlayerIdentity) []conflict.IdentityConflict {
	var out []conflict.IdentityConflict
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			a, b := orderPair(players[i], players[j])
			if a.Position != b.Position {
				continue
			}
			if a.NormalizedName == b.NormalizedName {
				// Exact matches belong to the other detectors.
				continue
			}

			score := namematch.Similarity(a.FullName, b.FullName)
			if score < fuzzyDupFloor || score >= fuzzyDupCeiling {
				continue
			}

			confidence := score
			reason := fmt.Sprintf("similar names %q and %q at %s (%.3f)", a.FullName, b.FullName, a.Position, score)
			if a.Team != "" && a.Team == b.Team {
				confidence += fuzzyDupTeamBoost
				reason += ", same team"
			}
			if a.BirthYear != nil && b.BirthYear != nil && *a.BirthYear == *b.BirthYear {
				confidence += fuzzyDupBirthBoost
				reason += ", same birth year"
			}
			if confidence > 1.0 {
				confidence = 1.0
			}

			out = append(out, conflict.IdentityConflict{
				PlayerID:      a.ID,
				OtherPlayerID: b.ID,
				Type:          conflict.TypePossibleDuplicate,
				Confidence:    confidence,
				Reason:        reason,
			})
		}
	}
	return out
}

func sharesExternalID(a, b identity.PlayerIdentity) bool {
	_, ok := sharedExternalIDSource(a, b)
	return ok
}

func sharedExternalIDSource(a, b identity.PlayerIdentity) (identity.Source, bool) {
	sources := make([]identity.Source, 0, len(a.ExternalIDs))
	for source := range a.ExternalIDs {
		sources = append(sources, source)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })

	for _, source := range sources {
		idA, okA := a.ExternalID(source)
		idB, okB := b.ExternalID(source)
		if okA && okB && idA == idB {
			return source, true
		}
	}
	return "", false
}
