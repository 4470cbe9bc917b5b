package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/gridironlab/valuation-engine/internal/domain/conflict"
	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/domain/value"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
)

// Warning floors for universe sanity. The active-player floor is well
// below a real league universe so it only trips on gutted data.
const (
	activePlayerFloor   = 200
	missingHistoryLimit = 50
)

// ValidationResult itemizes universe health before a rebuild.
type ValidationResult struct {
	Valid    bool
	Critical []string
	Warnings []string
	Stats    ValidationStats
}

// ValidationStats summarizes what the validator saw.
type ValidationStats struct {
	TotalPlayers    int
	ActivePlayers   int
	OpenConflicts   int
	BlockingCount   int
	OrphanValueRows int
}

// RosterSource lists player ids that appear on any league roster.
// Rostered players must exist in the identity table.
type RosterSource interface {
	ListRosteredPlayerIDs(ctx context.Context) ([]string, error)
}

// ValidatorService gates rebuilds on universe integrity.
type ValidatorService struct {
	identityRepo identity.Repository
	conflictRepo conflict.Repository
	valueRepo    value.Repository
	rosters      RosterSource
	logger       *logging.Logger
}

func NewValidatorService(
	identityRepo identity.Repository,
	conflictRepo conflict.Repository,
	valueRepo value.Repository,
	rosters RosterSource,
	logger *logging.Logger,
) *ValidatorService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ValidatorService{
		identityRepo: identityRepo,
		conflictRepo: conflictRepo,
		valueRepo:    valueRepo,
		rosters:      rosters,
		logger:       logger,
	}
}

// Validate inspects the player universe and classifies every problem
// as critical (aborts rebuilds) or a warning (logged and tolerated).
func (s *ValidatorService) Validate(ctx context.Context, formatKey string) (ValidationResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ValidatorService.Validate")
	defer span.End()

	result := ValidationResult{}

	all, err := s.identityRepo.ListAll(ctx)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("list identities: %w", err)
	}
	result.Stats.TotalPlayers = len(all)

	known := make(map[string]struct{}, len(all))
	active := 0
	for _, p := range all {
		known[p.ID] = struct{}{}
		if p.Status == identity.StatusActive {
			active++
		}
	}
	result.Stats.ActivePlayers = active

	if len(all) == 0 {
		result.Critical = append(result.Critical, "player universe is empty")
	} else if active == 0 {
		result.Critical = append(result.Critical, "no active players in the universe")
	} else if active < activePlayerFloor {
		result.Warnings = append(result.Warnings, fmt.Sprintf("only %d active players, expected at least %d", active, activePlayerFloor))
	}

	open, err := s.conflictRepo.ListOpen(ctx)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("list open conflicts: %w", err)
	}
	result.Stats.OpenConflicts = len(open)

	medium := 0
	for _, c := range open {
		if c.Blocking() {
			result.Stats.BlockingCount++
			result.Critical = append(result.Critical, fmt.Sprintf(
				"unresolved duplicate at %.2f confidence between %s and %s: %s",
				c.Confidence, c.PlayerID, c.OtherPlayerID, c.Reason,
			))
		} else if c.Confidence >= 0.80 {
			medium++
		}
	}
	if medium > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d medium-confidence duplicates open", medium))
	}

	if s.rosters != nil {
		rostered, err := s.rosters.ListRosteredPlayerIDs(ctx)
		if err != nil {
			// A broken roster feed degrades to "no roster data" rather
			// than failing validation outright.
			s.logger.WarnContext(ctx, "roster source unavailable during validation", "error", err)
		} else {
			for _, id := range rostered {
				if _, ok := known[id]; !ok {
					result.Critical = append(result.Critical, fmt.Sprintf("rostered player %s missing from the identity table", id))
				}
			}
		}
	}

	orphans, err := s.countOrphanValues(ctx, formatKey, known)
	if err != nil {
		return ValidationResult{}, err
	}
	result.Stats.OrphanValueRows = orphans
	if orphans > 0 {
		result.Critical = append(result.Critical, fmt.Sprintf("%d value rows reference nonexistent players", orphans))
	}

	result.Valid = len(result.Critical) == 0
	s.logger.InfoContext(ctx, "universe validation finished",
		"valid", result.Valid,
		"critical", len(result.Critical),
		"warnings", len(result.Warnings),
		"active_players", active,
	)
	return result, nil
}

func (s *ValidatorService) countOrphanValues(ctx context.Context, formatKey string, known map[string]struct{}) (int, error) {
	snapshot, ok, err := s.valueRepo.GetCurrentSnapshot(ctx, formatKey)
	if err != nil {
		return 0, fmt.Errorf("get current snapshot: %w", err)
	}
	if !ok {
		return 0, nil
	}

	values, err := s.valueRepo.ListValues(ctx, snapshot.ID)
	if err != nil {
		return 0, fmt.Errorf("list snapshot values: %w", err)
	}

	orphans := 0
	for _, v := range values {
		if _, exists := known[v.PlayerID]; !exists {
			orphans++
		}
	}
	return orphans, nil
}

// RequireValid fails fast with the itemized critical list. Rebuild
// callers must not proceed past an error from here.
func (s *ValidatorService) RequireValid(ctx context.Context, formatKey string) (ValidationResult, error) {
	result, err := s.Validate(ctx, formatKey)
	if err != nil {
		return ValidationResult{}, err
	}
	if !result.Valid {
		return result, fmt.Errorf("%w: %s", ErrRebuildBlocked, strings.Join(result.Critical, "; "))
	}
	return result, nil
}

// AutoFixSafeIssues deletes orphan value rows, which are reversible by
// the next rebuild. It never merges or deletes player identities.
func (s *ValidatorService) AutoFixSafeIssues(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ValidatorService.AutoFixSafeIssues")
	defer span.End()

	all, err := s.identityRepo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list identities: %w", err)
	}
	known := make(map[string]struct{}, len(all))
	for _, p := range all {
		known[p.ID] = struct{}{}
	}

	deleted, err := s.valueRepo.DeleteOrphanValues(ctx, known)
	if err != nil {
		return 0, fmt.Errorf("delete orphan values: %w", err)
	}
	if deleted > 0 {
		s.logger.InfoContext(ctx, "deleted orphan value rows", "count", deleted)
	}
	return deleted, nil
}
