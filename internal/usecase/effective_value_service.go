package usecase

import (
	"context"
	"fmt"

	"github.com/gridironlab/valuation-engine/internal/domain/adjustment"
	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/domain/value"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
)

// EffectiveValue is the read model UIs consume: the snapshotted base
// plus the live adjustment overlay.
type EffectiveValue struct {
	PlayerID       string
	FormatKey      string
	Position       identity.Position
	Rank           int
	BaseValue      int
	Adjustment     int
	EffectiveValue int
	Adjustments    []adjustment.ValueAdjustment
	Trend          adjustment.Trend
}

// EffectiveValueService is the only value-facing read path. Base
// values alone are stale by design between rebuilds.
type EffectiveValueService struct {
	valueRepo     value.Repository
	adjustmentSvc *AdjustmentService
	logger        *logging.Logger
}

func NewEffectiveValueService(valueRepo value.Repository, adjustmentSvc *AdjustmentService, logger *logging.Logger) *EffectiveValueService {
	if logger == nil {
		logger = logging.Default()
	}

	return &EffectiveValueService{
		valueRepo:     valueRepo,
		adjustmentSvc: adjustmentSvc,
		logger:        logger,
	}
}

// Get reads one player's effective value. The adjustment overlay fails
// open to zero so a broken overlay never hides the base value.
func (s *EffectiveValueService) Get(ctx context.Context, playerID, formatKey string) (EffectiveValue, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EffectiveValueService.Get")
	defer span.End()

	if playerID == "" {
		return EffectiveValue{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}
	if formatKey == "" {
		return EffectiveValue{}, fmt.Errorf("%w: format key is required", ErrInvalidInput)
	}

	snapshot, ok, err := s.valueRepo.GetCurrentSnapshot(ctx, formatKey)
	if err != nil {
		return EffectiveValue{}, fmt.Errorf("get current snapshot: %w", err)
	}
	if !ok {
		return EffectiveValue{}, fmt.Errorf("%w: no snapshot for format %s", ErrNotFound, formatKey)
	}

	base, ok, err := s.valueRepo.GetPlayerValue(ctx, snapshot.ID, playerID)
	if err != nil {
		return EffectiveValue{}, fmt.Errorf("get player value: %w", err)
	}
	if !ok {
		return EffectiveValue{}, fmt.Errorf("%w: no value for player %s in format %s", ErrNotFound, playerID, formatKey)
	}

	total, rows, err := s.adjustmentSvc.ActiveTotal(ctx, playerID, formatKey)
	if err != nil {
		s.logger.WarnContext(ctx, "adjustment overlay unavailable, serving base value",
			"player_id", playerID,
			"format_key", formatKey,
			"error", err,
		)
		total, rows = 0, nil
	}

	return EffectiveValue{
		PlayerID:       playerID,
		FormatKey:      formatKey,
		Position:       base.Position,
		Rank:           base.Rank,
		BaseValue:      base.FinalValue,
		Adjustment:     total,
		EffectiveValue: clampScale(base.FinalValue + total),
		Adjustments:    rows,
		Trend:          adjustment.TrendOf(total),
	}, nil
}

// List reads the whole board for a format with overlays applied.
func (s *EffectiveValueService) List(ctx context.Context, formatKey string) ([]EffectiveValue, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EffectiveValueService.List")
	defer span.End()

	if formatKey == "" {
		return nil, fmt.Errorf("%w: format key is required", ErrInvalidInput)
	}

	snapshot, ok, err := s.valueRepo.GetCurrentSnapshot(ctx, formatKey)
	if err != nil {
		return nil, fmt.Errorf("get current snapshot: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: no snapshot for format %s", ErrNotFound, formatKey)
	}

	values, err := s.valueRepo.ListValues(ctx, snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("list snapshot values: %w", err)
	}

	out := make([]EffectiveValue, 0, len(values))
	for _, v := range values {
		total, rows, err := s.adjustmentSvc.ActiveTotal(ctx, v.PlayerID, formatKey)
		if err != nil {
			total, rows = 0, nil
		}
		out = append(out, EffectiveValue{
			PlayerID:       v.PlayerID,
			FormatKey:      formatKey,
			Position:       v.Position,
			Rank:           v.Rank,
			BaseValue:      v.FinalValue,
			Adjustment:     total,
			EffectiveValue: clampScale(v.FinalValue + total),
			Adjustments:    rows,
			Trend:          adjustment.TrendOf(total),
		})
	}
	return out, nil
}

func clampScale(v int) int {
	if v < 0 {
		return 0
	}
	if v > value.MaxValue {
		return value.MaxValue
	}
	return v
}
