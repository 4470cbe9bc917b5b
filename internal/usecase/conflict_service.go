package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/gridironlab/valuation-engine/internal/domain/conflict"
	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
)

// MergeStore runs an identity merge as one transaction: external ids
// move to the surviving record and the duplicate is retired together.
type MergeStore interface {
	MergeIdentities(ctx context.Context, keepID, dropID string) error
}

// ConflictService is the human review surface for the duplicate scan.
// Nothing here is automatic: a reviewer picks merge, dismiss, or
// split per conflict.
type ConflictService struct {
	conflictRepo conflict.Repository
	identityRepo identity.Repository
	merger       MergeStore
	logger       *logging.Logger
	now          func() time.Time
}

func NewConflictService(
	conflictRepo conflict.Repository,
	identityRepo identity.Repository,
	merger MergeStore,
	logger *logging.Logger,
) *ConflictService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ConflictService{
		conflictRepo: conflictRepo,
		identityRepo: identityRepo,
		merger:       merger,
		logger:       logger,
		now:          time.Now,
	}
}

// ListOpen returns every unresolved conflict for review.
func (s *ConflictService) ListOpen(ctx context.Context) ([]conflict.IdentityConflict, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConflictService.ListOpen")
	defer span.End()

	open, err := s.conflictRepo.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open conflicts: %w", err)
	}
	return open, nil
}

// Resolve applies a reviewer's decision. A merge keeps the first
// player, folds the second into it atomically, and closes the
// conflict; dismiss and split just close it.
func (s *ConflictService) Resolve(ctx context.Context, conflictID string, resolution conflict.Resolution) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConflictService.Resolve")
	defer span.End()

	if conflictID == "" {
		return fmt.Errorf("%w: conflict id is required", ErrInvalidInput)
	}

	c, found, err := s.conflictRepo.GetByID(ctx, conflictID)
	if err != nil {
		return fmt.Errorf("get conflict: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: conflict %s", ErrNotFound, conflictID)
	}
	if c.Resolved {
		return fmt.Errorf("%w: conflict %s is already resolved", ErrInvalidInput, conflictID)
	}

	switch resolution {
	case conflict.ResolutionMerged:
		if s.merger == nil {
			return fmt.Errorf("%w: merge store not configured", ErrDependencyUnavailable)
		}
		if err := s.merger.MergeIdentities(ctx, c.PlayerID, c.OtherPlayerID); err != nil {
			return fmt.Errorf("merge identities %s and %s: %w", c.PlayerID, c.OtherPlayerID, err)
		}
	case conflict.ResolutionDismissed, conflict.ResolutionSplit:
	default:
		return fmt.Errorf("%w: unknown resolution %q", ErrInvalidInput, resolution)
	}

	if err := s.conflictRepo.Resolve(ctx, conflictID, resolution); err != nil {
		return fmt.Errorf("resolve conflict: %w", err)
	}

	s.logger.InfoContext(ctx, "conflict resolved",
		"conflict_id", conflictID,
		"resolution", resolution,
		"player_id", c.PlayerID,
		"other_player_id", c.OtherPlayerID,
	)
	return nil
}
