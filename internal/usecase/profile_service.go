package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/gridironlab/valuation-engine/internal/domain/profile"
	"github.com/gridironlab/valuation-engine/internal/platform/cache"
	idgen "github.com/gridironlab/valuation-engine/internal/platform/id"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
	"github.com/gridironlab/valuation-engine/internal/valuation"
)

const profileCachePrefix = "profile:"

// ProfileService resolves raw league settings onto deduplicated
// profiles. Identical settings always land on one profile row.
type ProfileService struct {
	profileRepo profile.Repository
	store       *cache.Store
	idGen       idgen.Generator
	logger      *logging.Logger
	now         func() time.Time
}

func NewProfileService(
	profileRepo profile.Repository,
	store *cache.Store,
	idGen idgen.Generator,
	logger *logging.Logger,
) *ProfileService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ProfileService{
		profileRepo: profileRepo,
		store:       store,
		idGen:       idGen,
		logger:      logger,
		now:         time.Now,
	}
}

// Resolve finds or lazily creates the profile for a settings
// combination, with computed multipliers persisted on first creation.
func (s *ProfileService) Resolve(ctx context.Context, settings profile.LeagueProfile) (profile.LeagueProfile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.Resolve")
	defer span.End()

	if err := settings.Validate(); err != nil {
		return profile.LeagueProfile{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	formatKey := profile.DeriveFormatKey(settings)

	if s.store != nil {
		if cached, ok := s.store.Get(ctx, profileCachePrefix+formatKey); ok {
			if p, ok := cached.(profile.LeagueProfile); ok {
				return p, nil
			}
		}
	}

	existing, found, err := s.profileRepo.GetByFormatKey(ctx, formatKey)
	if err != nil {
		return profile.LeagueProfile{}, fmt.Errorf("get profile by format key: %w", err)
	}
	if found {
		if len(existing.Multipliers) == 0 {
			// Older rows predate the multiplier engine; backfill once.
			existing.Multipliers = valuation.CalculateMultipliers(existing)
			if err := s.profileRepo.SaveMultipliers(ctx, existing.ID, existing.Multipliers); err != nil {
				return profile.LeagueProfile{}, fmt.Errorf("backfill profile multipliers: %w", err)
			}
		}
		s.cacheProfile(ctx, existing)
		return existing, nil
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return profile.LeagueProfile{}, fmt.Errorf("generate profile id: %w", err)
	}

	now := s.now().UTC()
	created := settings
	created.ID = id
	created.FormatKey = formatKey
	created.Multipliers = valuation.CalculateMultipliers(settings)
	created.CreatedAt = now
	created.UpdatedAt = now

	if err := s.profileRepo.Insert(ctx, created); err != nil {
		return profile.LeagueProfile{}, fmt.Errorf("insert profile: %w", err)
	}

	s.logger.InfoContext(ctx, "created league profile",
		"profile_id", created.ID,
		"format_key", created.FormatKey,
		"teams", created.NumTeams,
	)
	s.cacheProfile(ctx, created)
	return created, nil
}

// GetByFormatKey reads one profile through the cache.
func (s *ProfileService) GetByFormatKey(ctx context.Context, formatKey string) (profile.LeagueProfile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.GetByFormatKey")
	defer span.End()

	if formatKey == "" {
		return profile.LeagueProfile{}, fmt.Errorf("%w: format key is required", ErrInvalidInput)
	}

	if s.store != nil {
		if cached, ok := s.store.Get(ctx, profileCachePrefix+formatKey); ok {
			if p, ok := cached.(profile.LeagueProfile); ok {
				return p, nil
			}
		}
	}

	p, found, err := s.profileRepo.GetByFormatKey(ctx, formatKey)
	if err != nil {
		return profile.LeagueProfile{}, fmt.Errorf("get profile: %w", err)
	}
	if !found {
		return profile.LeagueProfile{}, fmt.Errorf("%w: profile %s", ErrNotFound, formatKey)
	}

	s.cacheProfile(ctx, p)
	return p, nil
}

// ListAll returns every known profile, uncached.
func (s *ProfileService) ListAll(ctx context.Context) ([]profile.LeagueProfile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.ListAll")
	defer span.End()

	profiles, err := s.profileRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

func (s *ProfileService) cacheProfile(ctx context.Context, p profile.LeagueProfile) {
	if s.store != nil {
		s.store.Set(ctx, profileCachePrefix+p.FormatKey, p)
	}
}
