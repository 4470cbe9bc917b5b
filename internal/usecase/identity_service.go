package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gridironlab/valuation-engine/internal/domain/conflict"
	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/namematch"
	idgen "github.com/gridironlab/valuation-engine/internal/platform/id"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
)

// Fuzzy match acceptance: the best candidate must clear this score and
// lead the runner-up by the separation margin, otherwise the match is
// ambiguous and becomes a conflict instead.
const (
	fuzzyMatchThreshold  = 0.92
	fuzzyMatchSeparation = 0.02
)

// MatchMethod names the ladder rung that produced a match.
type MatchMethod string

const (
	MethodNameTeamPos MatchMethod = "name_team_position"
	MethodNamePos     MatchMethod = "name_position"
	MethodFuzzyName   MatchMethod = "fuzzy_name"
	MethodNone        MatchMethod = "none"
)

// externalIDMethod names the rung after the id field that matched,
// e.g. "sleeper_id".
func externalIDMethod(source identity.Source) MatchMethod {
	return MatchMethod(string(source) + "_id")
}

// MatchResult is the outcome of resolving one incoming record.
type MatchResult struct {
	Matched    bool
	PlayerID   string
	Confidence float64
	Method     MatchMethod
	Conflicts  []conflict.IdentityConflict
}

// UpsertResult reports what an upsert did with an incoming record.
type UpsertResult struct {
	PlayerID  string
	Created   bool
	Matched   bool
	Changes   []identity.FieldChange
	Rejected  []identity.Rejection
	Conflicts []conflict.IdentityConflict
}

// IdentityService resolves external feed records onto canonical
// player identities.
type IdentityService struct {
	identityRepo identity.Repository
	conflictRepo conflict.Repository
	scorer       *namematch.Scorer
	idGen        idgen.Generator
	logger       *logging.Logger
	now          func() time.Time
}

func NewIdentityService(
	identityRepo identity.Repository,
	conflictRepo conflict.Repository,
	scorer *namematch.Scorer,
	idGen idgen.Generator,
	logger *logging.Logger,
) *IdentityService {
	if logger == nil {
		logger = logging.Default()
	}
	if scorer == nil {
		scorer = namematch.NewScorer(namematch.DefaultNicknames())
	}

	return &IdentityService{
		identityRepo: identityRepo,
		conflictRepo: conflictRepo,
		scorer:       scorer,
		idGen:        idGen,
		logger:       logger,
		now:          time.Now,
	}
}

// Match walks the resolution ladder for one incoming record. The
// ladder never guesses: any rung that finds more than one equally
// plausible identity reports conflicts instead of picking one.
func (s *IdentityService) Match(ctx context.Context, in identity.IncomingRecord) (MatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IdentityService.Match")
	defer span.End()

	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		return MatchResult{}, fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}
	if _, ok := identity.AllPositions[in.Position]; !ok {
		return MatchResult{}, fmt.Errorf("%w: invalid position %q", ErrInvalidInput, in.Position)
	}

	if result, done, err := s.matchByExternalID(ctx, in); done || err != nil {
		return result, err
	}

	normalized := namematch.Normalize(in.FullName)
	candidates, err := s.identityRepo.ListByNormalizedName(ctx, normalized)
	if err != nil {
		return MatchResult{}, fmt.Errorf("list identities by name: %w", err)
	}

	if result, done := s.matchByNameTeamPosition(in, candidates); done {
		return result, nil
	}
	if result, done := s.matchByNamePosition(in, candidates); done {
		return result, nil
	}

	return s.matchFuzzy(ctx, in, normalized)
}

func (s *IdentityService) matchByExternalID(ctx context.Context, in identity.IncomingRecord) (MatchResult, bool, error) {
	sources := make([]identity.Source, 0, len(in.ExternalIDs))
	for source := range in.ExternalIDs {
		sources = append(sources, source)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })

	for _, source := range sources {
		externalID := strings.TrimSpace(in.ExternalIDs[source])
		if externalID == "" {
			continue
		}
		found, ok, err := s.identityRepo.GetByExternalID(ctx, source, externalID)
		if err != nil {
			return MatchResult{}, false, fmt.Errorf("get identity by %s id: %w", source, err)
		}
		if ok {
			return MatchResult{
				Matched:    true,
				PlayerID:   found.ID,
				Confidence: 1.0,
				Method:     externalIDMethod(source),
			}, true, nil
		}
	}

	return MatchResult{}, false, nil
}

func (s *IdentityService) matchByNameTeamPosition(in identity.IncomingRecord, candidates []identity.PlayerIdentity) (MatchResult, bool) {
	var hits []identity.PlayerIdentity
	for _, c := range candidates {
		if c.Position == in.Position && in.Team != "" && strings.EqualFold(c.Team, in.Team) {
			hits = append(hits, c)
		}
	}

	switch len(hits) {
	case 0:
		return MatchResult{}, false
	case 1:
		return MatchResult{
			Matched:    true,
			PlayerID:   hits[0].ID,
			Confidence: 0.98,
			Method:     MethodNameTeamPos,
		}, true
	default:
		return MatchResult{
			Method:    MethodNone,
			Conflicts: s.ambiguityConflicts(in, hits, "multiple identities share name, team, and position"),
		}, true
	}
}

func (s *IdentityService) matchByNamePosition(in identity.IncomingRecord, candidates []identity.PlayerIdentity) (MatchResult, bool) {
	var hits []identity.PlayerIdentity
	for _, c := range candidates {
		if c.Position == in.Position {
			hits = append(hits, c)
		}
	}

	switch len(hits) {
	case 0:
		return MatchResult{}, false
	case 1:
		return MatchResult{
			Matched:    true,
			PlayerID:   hits[0].ID,
			Confidence: 0.95,
			Method:     MethodNamePos,
		}, true
	default:
		return MatchResult{
			Method:    MethodNone,
			Conflicts: s.ambiguityConflicts(in, hits, "multiple identities share name and position"),
		}, true
	}
}

// matchFuzzy scans the same-position universe for near-miss spellings.
// The trailing-name prefix filter keeps the scan from comparing every
// player against every record.
func (s *IdentityService) matchFuzzy(ctx context.Context, in identity.IncomingRecord, normalized string) (MatchResult, error) {
	all, err := s.identityRepo.ListAll(ctx)
	if err != nil {
		return MatchResult{}, fmt.Errorf("list identities: %w", err)
	}

	lastName := namematch.LastName(normalized)
	if len(lastName) < 2 {
		return MatchResult{Method: MethodNone}, nil
	}
	prefix := lastName[:2]

	type scored struct {
		player identity.PlayerIdentity
		score  float64
	}
	var best, second *scored
	for i := range all {
		c := all[i]
		if c.Position != in.Position {
			continue
		}
		candidateLast := namematch.LastName(c.NormalizedName)
		if len(candidateLast) < 2 || candidateLast[:2] != prefix {
			continue
		}
		score := s.scorer.ScoreMatch(in.FullName, c.FullName).Score
		entry := scored{player: c, score: score}
		switch {
		case best == nil || score > best.score:
			second = best
			e := entry
			best = &e
		case second == nil || score > second.score:
			e := entry
			second = &e
		}
	}

	if best == nil || best.score < fuzzyMatchThreshold {
		return MatchResult{Method: MethodNone}, nil
	}
	if second != nil && best.score-second.score < fuzzyMatchSeparation {
		hits := []identity.PlayerIdentity{best.player, second.player}
		return MatchResult{
			Method:    MethodNone,
			Conflicts: s.ambiguityConflicts(in, hits, fmt.Sprintf("ambiguous fuzzy match: %.3f vs %.3f", best.score, second.score)),
		}, nil
	}

	return MatchResult{
		Matched:    true,
		PlayerID:   best.player.ID,
		Confidence: best.score,
		Method:     MethodFuzzyName,
	}, nil
}

func (s *IdentityService) ambiguityConflicts(in identity.IncomingRecord, hits []identity.PlayerIdentity, reason string) []conflict.IdentityConflict {
	now := s.now().UTC()
	out := make([]conflict.IdentityConflict, 0, len(hits)*(len(hits)-1)/2)
	for i := 0; i < len(hits); i++ {
		for j := i + 1; j < len(hits); j++ {
			out = append(out, conflict.IdentityConflict{
				PlayerID:      hits[i].ID,
				OtherPlayerID: hits[j].ID,
				Type:          conflict.TypePossibleDuplicate,
				Confidence:    0.85,
				Reason:        fmt.Sprintf("%s (incoming %q from %s)", reason, in.FullName, in.Source),
				CreatedAt:     now,
			})
		}
	}
	return out
}

// Upsert resolves a record and either refreshes the matched identity
// or creates a new one. Ambiguous matches are persisted as conflicts
// and never auto-created on top of.
func (s *IdentityService) Upsert(ctx context.Context, in identity.IncomingRecord) (UpsertResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IdentityService.Upsert")
	defer span.End()

	match, err := s.Match(ctx, in)
	if err != nil {
		return UpsertResult{}, err
	}

	if len(match.Conflicts) > 0 {
		for _, c := range match.Conflicts {
			c.ID, err = s.idGen.NewID()
			if err != nil {
				return UpsertResult{}, fmt.Errorf("generate conflict id: %w", err)
			}
			if err := s.conflictRepo.Upsert(ctx, c); err != nil {
				return UpsertResult{}, fmt.Errorf("store ambiguity conflict: %w", err)
			}
		}
		s.logger.WarnContext(ctx, "identity upsert surfaced conflicts instead of matching",
			"player_name", in.FullName,
			"source", in.Source,
			"conflict_count", len(match.Conflicts),
		)
		return UpsertResult{Conflicts: match.Conflicts}, nil
	}

	if !match.Matched {
		created, err := s.create(ctx, in)
		if err != nil {
			return UpsertResult{}, err
		}
		return UpsertResult{PlayerID: created.ID, Created: true}, nil
	}

	return s.refresh(ctx, match.PlayerID, in)
}

func (s *IdentityService) create(ctx context.Context, in identity.IncomingRecord) (identity.PlayerIdentity, error) {
	id, err := s.idGen.NewID()
	if err != nil {
		return identity.PlayerIdentity{}, fmt.Errorf("generate player id: %w", err)
	}

	now := s.now().UTC()
	externalIDs := make(map[identity.Source]string, len(in.ExternalIDs))
	for source, externalID := range in.ExternalIDs {
		if strings.TrimSpace(externalID) != "" {
			externalIDs[source] = strings.TrimSpace(externalID)
		}
	}

	player := identity.PlayerIdentity{
		ID:             id,
		ExternalIDs:    externalIDs,
		FullName:       strings.TrimSpace(in.FullName),
		NormalizedName: namematch.Normalize(in.FullName),
		BirthYear:      in.BirthYear,
		Team:           strings.ToUpper(strings.TrimSpace(in.Team)),
		Position:       in.Position,
		SubPosition:    in.SubPosition,
		Status:         identity.StatusActive,
		LastSeenSource: in.Source,
		LastSeenAt:     now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := player.Validate(); err != nil {
		return identity.PlayerIdentity{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.identityRepo.Upsert(ctx, player); err != nil {
		return identity.PlayerIdentity{}, fmt.Errorf("create identity: %w", err)
	}

	s.logger.InfoContext(ctx, "created player identity",
		"player_id", player.ID,
		"player_name", player.FullName,
		"source", in.Source,
	)
	return player, nil
}

// refresh backfills missing external ids and applies attribute updates
// under the reconcile authority rules.
func (s *IdentityService) refresh(ctx context.Context, playerID string, in identity.IncomingRecord) (UpsertResult, error) {
	player, ok, err := s.identityRepo.GetByID(ctx, playerID)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("get matched identity: %w", err)
	}
	if !ok {
		return UpsertResult{}, fmt.Errorf("%w: matched player %s disappeared", ErrNotFound, playerID)
	}

	result := UpsertResult{PlayerID: playerID, Matched: true}
	now := s.now().UTC()
	dirty := false

	if player.ExternalIDs == nil {
		player.ExternalIDs = make(map[identity.Source]string)
	}
	for source, externalID := range in.ExternalIDs {
		externalID = strings.TrimSpace(externalID)
		if externalID == "" {
			continue
		}
		if _, exists := player.ExternalID(source); !exists {
			player.ExternalIDs[source] = externalID
			result.Changes = append(result.Changes, identity.FieldChange{
				Field:    "external_id." + string(source),
				NewValue: externalID,
				Source:   in.Source,
			})
			dirty = true
		}
	}

	team := strings.ToUpper(strings.TrimSpace(in.Team))
	if team != "" && !strings.EqualFold(player.Team, team) {
		if allowed, reason := identity.AllowTeamUpdate(player, in.Source, in.Confidence); allowed {
			result.Changes = append(result.Changes, identity.FieldChange{
				Field:    "team",
				OldValue: player.Team,
				NewValue: team,
				Source:   in.Source,
			})
			player.Team = team
			dirty = true
		} else {
			result.Rejected = append(result.Rejected, identity.Rejection{
				Field:  "team",
				Value:  team,
				Source: in.Source,
				Reason: reason,
			})
		}
	}

	if in.Position != "" && in.Position != player.Position {
		if allowed, reason := identity.AllowPositionChange(player, in.Position, in.SubPosition, in.Source, in.Confidence); allowed {
			result.Changes = append(result.Changes, identity.FieldChange{
				Field:    "position",
				OldValue: string(player.Position),
				NewValue: string(in.Position),
				Source:   in.Source,
			})
			player.Position = in.Position
			player.SubPosition = in.SubPosition
			dirty = true
		} else {
			result.Rejected = append(result.Rejected, identity.Rejection{
				Field:  "position",
				Value:  string(in.Position),
				Source: in.Source,
				Reason: reason,
			})
		}
	}

	player.LastSeenSource = in.Source
	player.LastSeenAt = now
	player.UpdatedAt = now
	if player.Status != identity.StatusActive {
		player.Status = identity.StatusActive
		result.Changes = append(result.Changes, identity.FieldChange{
			Field:    "status",
			NewValue: string(identity.StatusActive),
			Source:   in.Source,
		})
	}

	if err := s.identityRepo.Upsert(ctx, player); err != nil {
		return UpsertResult{}, fmt.Errorf("update identity: %w", err)
	}

	if dirty {
		s.logger.InfoContext(ctx, "refreshed player identity",
			"player_id", player.ID,
			"changes", len(result.Changes),
			"rejected", len(result.Rejected),
		)
	}
	for _, rejection := range result.Rejected {
		s.logger.InfoContext(ctx, "rejected identity update",
			"player_id", player.ID,
			"field", rejection.Field,
			"reason", rejection.Reason,
		)
	}

	return result, nil
}

// RetireStale flips identities unseen for the staleness window to
// retired and returns how many moved.
func (s *IdentityService) RetireStale(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IdentityService.RetireStale")
	defer span.End()

	active, err := s.identityRepo.ListByStatus(ctx, identity.StatusActive)
	if err != nil {
		return 0, fmt.Errorf("list active identities: %w", err)
	}

	cutoff := s.now().UTC().Add(-identity.StalenessWindow)
	retired := 0
	for _, player := range active {
		if player.LastSeenAt.IsZero() || player.LastSeenAt.After(cutoff) {
			continue
		}
		if err := s.identityRepo.UpdateStatus(ctx, player.ID, identity.StatusRetired); err != nil {
			return retired, fmt.Errorf("retire player %s: %w", player.ID, err)
		}
		retired++
	}

	if retired > 0 {
		s.logger.InfoContext(ctx, "retired stale identities", "count", retired)
	}
	return retired, nil
}
