package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/domain/market"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
)

// PlayerFeed supplies identity records from an upstream provider.
type PlayerFeed interface {
	FetchPlayers(ctx context.Context) ([]identity.IncomingRecord, error)
}

// ExternalRank is one market rank row as a provider reports it,
// keyed by the provider's own player id namespace.
type ExternalRank struct {
	IDSource             identity.Source
	ExternalID           string
	Rank                 int
	ProductionPercentile *float64
	Provider             string
}

// RankFeed supplies market ranks for one format.
type RankFeed interface {
	FetchRanks(ctx context.Context, formatKey string) ([]ExternalRank, error)
}

// IdentitySyncResult summarizes one identity feed pull.
type IdentitySyncResult struct {
	Fetched   int
	Created   int
	Updated   int
	Ambiguous int
	Failed    int
}

// MarketSyncResult summarizes one rank feed pull.
type MarketSyncResult struct {
	Fetched   int
	Imported  int
	Unmatched int
}

// SyncService pulls external feeds into the identity and market
// tables. Feed rows never bypass identity resolution: every player
// record goes through the same match-then-merge path as manual input.
type SyncService struct {
	identitySvc  *IdentityService
	identityRepo identity.Repository
	marketRepo   market.Repository
	players      PlayerFeed
	ranks        RankFeed
	logger       *logging.Logger
	now          func() time.Time
}

func NewSyncService(
	identitySvc *IdentityService,
	identityRepo identity.Repository,
	marketRepo market.Repository,
	players PlayerFeed,
	ranks RankFeed,
	logger *logging.Logger,
) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncService{
		identitySvc:  identitySvc,
		identityRepo: identityRepo,
		marketRepo:   marketRepo,
		players:      players,
		ranks:        ranks,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SyncIdentities pulls the player feed and upserts every record.
// Individual record failures are counted, not fatal: one bad feed row
// must not abort a full dump import.
func (s *SyncService) SyncIdentities(ctx context.Context) (IdentitySyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncIdentities")
	defer span.End()

	if s.players == nil {
		return IdentitySyncResult{}, fmt.Errorf("%w: player feed is not configured", ErrDependencyUnavailable)
	}

	records, err := s.players.FetchPlayers(ctx)
	if err != nil {
		return IdentitySyncResult{}, fmt.Errorf("fetch players: %w", err)
	}

	result := IdentitySyncResult{Fetched: len(records)}
	for _, record := range records {
		upserted, err := s.identitySvc.Upsert(ctx, record)
		if err != nil {
			result.Failed++
			s.logger.WarnContext(ctx, "identity upsert failed during sync",
				"full_name", record.FullName,
				"source", string(record.Source),
				"error", err,
			)
			continue
		}
		switch {
		case upserted.Created:
			result.Created++
		case upserted.Matched:
			result.Updated++
		default:
			result.Ambiguous++
		}
	}

	s.logger.InfoContext(ctx, "identity sync finished",
		"fetched", result.Fetched,
		"created", result.Created,
		"updated", result.Updated,
		"ambiguous", result.Ambiguous,
		"failed", result.Failed,
	)
	return result, nil
}

// SyncMarketRanks pulls the rank feed for one format and stores rows
// whose external ids resolve to a known identity. Unresolved rows are
// dropped and counted; they usually mean the identity sync has not
// seen the player yet.
func (s *SyncService) SyncMarketRanks(ctx context.Context, formatKey string) (MarketSyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncMarketRanks")
	defer span.End()

	if formatKey == "" {
		return MarketSyncResult{}, fmt.Errorf("%w: format key is required", ErrInvalidInput)
	}
	if s.ranks == nil {
		return MarketSyncResult{}, fmt.Errorf("%w: rank feed is not configured", ErrDependencyUnavailable)
	}

	externalRanks, err := s.ranks.FetchRanks(ctx, formatKey)
	if err != nil {
		return MarketSyncResult{}, fmt.Errorf("fetch ranks for %s: %w", formatKey, err)
	}

	fetchedAt := s.now()
	result := MarketSyncResult{Fetched: len(externalRanks)}
	rows := make([]market.Rank, 0, len(externalRanks))
	for _, external := range externalRanks {
		player, found, err := s.identityRepo.GetByExternalID(ctx, external.IDSource, external.ExternalID)
		if err != nil {
			return MarketSyncResult{}, fmt.Errorf("resolve rank row %s: %w", external.ExternalID, err)
		}
		if !found {
			result.Unmatched++
			continue
		}

		row := market.Rank{
			PlayerID:             player.ID,
			FormatKey:            formatKey,
			Rank:                 external.Rank,
			ProductionPercentile: external.ProductionPercentile,
			Source:               external.Provider,
			FetchedAt:            fetchedAt,
		}
		if err := row.Validate(); err != nil {
			result.Unmatched++
			s.logger.WarnContext(ctx, "dropping invalid rank row",
				"external_id", external.ExternalID,
				"error", err,
			)
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) > 0 {
		if err := s.marketRepo.UpsertBatch(ctx, rows); err != nil {
			return MarketSyncResult{}, fmt.Errorf("store ranks for %s: %w", formatKey, err)
		}
	}
	result.Imported = len(rows)

	s.logger.InfoContext(ctx, "market rank sync finished",
		"format_key", formatKey,
		"fetched", result.Fetched,
		"imported", result.Imported,
		"unmatched", result.Unmatched,
	)
	return result, nil
}
