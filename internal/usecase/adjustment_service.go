package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/gridironlab/valuation-engine/internal/domain/adjustment"
	idgen "github.com/gridironlab/valuation-engine/internal/platform/id"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
)

// CreateAdjustmentInput is one overlay delta request, from a detector
// or a manual admin action.
type CreateAdjustmentInput struct {
	PlayerID   string
	FormatKey  string
	Delta      int
	Reason     string
	Source     string
	Confidence int
	TTL        time.Duration
}

// AdjustmentService manages overlay deltas on top of snapshot values.
// A nil tuning service keeps the built-in overlay cap.
type AdjustmentService struct {
	adjustmentRepo adjustment.Repository
	tuningSvc      *TuningService
	idGen          idgen.Generator
	logger         *logging.Logger
	now            func() time.Time
}

func NewAdjustmentService(adjustmentRepo adjustment.Repository, tuningSvc *TuningService, idGen idgen.Generator, logger *logging.Logger) *AdjustmentService {
	if logger == nil {
		logger = logging.Default()
	}

	return &AdjustmentService{
		adjustmentRepo: adjustmentRepo,
		tuningSvc:      tuningSvc,
		idGen:          idGen,
		logger:         logger,
		now:            time.Now,
	}
}

// Create inserts a new adjustment row. Rows are append-only; a changed
// mind means a new row, not an update.
func (s *AdjustmentService) Create(ctx context.Context, in CreateAdjustmentInput) (adjustment.ValueAdjustment, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdjustmentService.Create")
	defer span.End()

	if in.TTL <= 0 {
		return adjustment.ValueAdjustment{}, fmt.Errorf("%w: adjustment ttl must be positive", ErrInvalidInput)
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return adjustment.ValueAdjustment{}, fmt.Errorf("generate adjustment id: %w", err)
	}

	now := s.now().UTC()
	row := adjustment.ValueAdjustment{
		ID:         id,
		PlayerID:   in.PlayerID,
		FormatKey:  in.FormatKey,
		Delta:      in.Delta,
		Reason:     in.Reason,
		Source:     in.Source,
		Confidence: in.Confidence,
		ExpiresAt:  now.Add(in.TTL),
		CreatedAt:  now,
	}
	if err := row.Validate(); err != nil {
		return adjustment.ValueAdjustment{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.adjustmentRepo.Insert(ctx, row); err != nil {
		return adjustment.ValueAdjustment{}, fmt.Errorf("insert adjustment: %w", err)
	}

	s.logger.InfoContext(ctx, "created value adjustment",
		"player_id", row.PlayerID,
		"format_key", row.FormatKey,
		"delta", row.Delta,
		"source", row.Source,
		"expires_at", row.ExpiresAt,
	)
	return row, nil
}

// ActiveTotal sums a player's live adjustments, clamped to the overlay
// cap, alongside the contributing rows.
func (s *AdjustmentService) ActiveTotal(ctx context.Context, playerID, formatKey string) (int, []adjustment.ValueAdjustment, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdjustmentService.ActiveTotal")
	defer span.End()

	rows, err := s.adjustmentRepo.ListActive(ctx, playerID, formatKey, s.now().UTC())
	if err != nil {
		return 0, nil, fmt.Errorf("list active adjustments: %w", err)
	}

	total := 0
	for _, row := range rows {
		total += row.Delta
	}

	limit := adjustment.TotalCap
	if s.tuningSvc != nil {
		if tuned := int(s.tuningSvc.Config(ctx).AdjustmentTotalCap); tuned > 0 {
			limit = tuned
		}
	}
	return adjustment.ClampTotalTo(total, limit), rows, nil
}

// SweepExpired hard-deletes rows past their expiry. Expired rows
// already contribute nothing; the sweep just keeps the table small.
func (s *AdjustmentService) SweepExpired(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdjustmentService.SweepExpired")
	defer span.End()

	deleted, err := s.adjustmentRepo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired adjustments: %w", err)
	}
	if deleted > 0 {
		s.logger.InfoContext(ctx, "swept expired adjustments", "count", deleted)
	}
	return deleted, nil
}
