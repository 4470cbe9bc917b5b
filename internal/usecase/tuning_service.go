package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/gridironlab/valuation-engine/internal/domain/tuning"
	"github.com/gridironlab/valuation-engine/internal/platform/cache"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
)

const tuningCacheKey = "tuning:config"

// EntryOutcome reports one row's fate during a bulk save. Admin edits
// get per-row results, never a bare boolean.
type EntryOutcome struct {
	Category tuning.Category
	Key      string
	Saved    bool
	Message  string
}

// TuningService serves the merged pipeline configuration and accepts
// admin edits. Reads go through the cache; saves invalidate it.
type TuningService struct {
	tuningRepo tuning.Repository
	store      *cache.Store
	logger     *logging.Logger
	now        func() time.Time
}

func NewTuningService(tuningRepo tuning.Repository, store *cache.Store, logger *logging.Logger) *TuningService {
	if logger == nil {
		logger = logging.Default()
	}

	return &TuningService{
		tuningRepo: tuningRepo,
		store:      store,
		logger:     logger,
		now:        time.Now,
	}
}

// Config returns the merged tuning configuration. A broken store
// degrades to defaults rather than failing the caller.
func (s *TuningService) Config(ctx context.Context) tuning.Config {
	ctx, span := startUsecaseSpan(ctx, "usecase.TuningService.Config")
	defer span.End()

	load := func(ctx context.Context) (any, error) {
		entries, err := s.tuningRepo.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		return tuning.MergeWithDefaults(entries), nil
	}

	if s.store == nil {
		merged, err := load(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "tuning load failed, using defaults", "error", err)
			return tuning.Defaults()
		}
		return merged.(tuning.Config)
	}

	merged, err := s.store.GetOrLoad(ctx, tuningCacheKey, load)
	if err != nil {
		s.logger.WarnContext(ctx, "tuning load failed, using defaults", "error", err)
		return tuning.Defaults()
	}

	cfg, ok := merged.(tuning.Config)
	if !ok {
		return tuning.Defaults()
	}
	return cfg
}

// SaveEntries upserts a batch of knobs, reporting per-row outcomes.
// Any successful row invalidates the cached merged config.
func (s *TuningService) SaveEntries(ctx context.Context, entries []tuning.Entry) ([]EntryOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TuningService.SaveEntries")
	defer span.End()

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no tuning entries provided", ErrInvalidInput)
	}

	outcomes := make([]EntryOutcome, 0, len(entries))
	saved := 0
	for _, e := range entries {
		outcome := EntryOutcome{Category: e.Category, Key: e.Key}
		if err := e.Validate(); err != nil {
			outcome.Message = err.Error()
			outcomes = append(outcomes, outcome)
			continue
		}

		e.UpdatedAt = s.now().UTC()
		if err := s.tuningRepo.Upsert(ctx, e); err != nil {
			outcome.Message = fmt.Sprintf("store entry: %v", err)
			outcomes = append(outcomes, outcome)
			continue
		}

		outcome.Saved = true
		outcome.Message = "saved"
		outcomes = append(outcomes, outcome)
		saved++
	}

	if saved > 0 && s.store != nil {
		s.store.Invalidate(ctx, tuningCacheKey)
	}

	s.logger.InfoContext(ctx, "tuning entries saved",
		"requested", len(entries),
		"saved", saved,
	)
	return outcomes, nil
}

// DeleteEntry removes one knob, reverting it to its default.
func (s *TuningService) DeleteEntry(ctx context.Context, category tuning.Category, key string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TuningService.DeleteEntry")
	defer span.End()

	if key == "" {
		return fmt.Errorf("%w: tuning key is required", ErrInvalidInput)
	}
	if err := s.tuningRepo.Delete(ctx, category, key); err != nil {
		return fmt.Errorf("delete tuning entry: %w", err)
	}
	if s.store != nil {
		s.store.Invalidate(ctx, tuningCacheKey)
	}
	return nil
}
