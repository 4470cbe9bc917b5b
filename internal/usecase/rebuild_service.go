package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/domain/market"
	"github.com/gridironlab/valuation-engine/internal/domain/profile"
	"github.com/gridironlab/valuation-engine/internal/domain/tuning"
	"github.com/gridironlab/valuation-engine/internal/domain/value"
	idgen "github.com/gridironlab/valuation-engine/internal/platform/id"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
	"github.com/gridironlab/valuation-engine/internal/valuation"
)

// rebuildBatchSize bounds concurrent per-player computations so a
// rebuild cannot saturate the database connection pool.
const rebuildBatchSize = 50

// RebuildInput selects which profile to rebuild.
type RebuildInput struct {
	FormatKey string
}

// RebuildResult is the diagnostic summary of one rebuild run.
type RebuildResult struct {
	SnapshotID    string
	FormatKey     string
	PlayerCount   int
	AnchoredCount int
	Warnings      []string
	Duration      time.Duration
}

// PlayerAttributes supplies per-player inputs the identity table does
// not carry, such as age and injury designation.
type PlayerAttributes struct {
	Age          int
	InjuryStatus valuation.InjuryStatus
}

// AttributeSource provides rebuild-time player attributes. Missing
// attributes degrade to neutral factors.
type AttributeSource interface {
	GetAttributes(ctx context.Context, playerID string) (PlayerAttributes, bool, error)
}

// RebuildService runs the full valuation pipeline: validate, compute
// per-player values in bounded batches, apply the global scarcity
// pass, and publish a new immutable snapshot.
type RebuildService struct {
	identityRepo identity.Repository
	marketRepo   market.Repository
	valueRepo    value.Repository
	profileSvc   *ProfileService
	validatorSvc *ValidatorService
	duplicateSvc *DuplicateService
	tuningSvc    *TuningService
	attributes   AttributeSource
	flexWeights  valuation.FlexWeightTable
	elasticity   valuation.ElasticityCapTable
	idGen        idgen.Generator
	logger       *logging.Logger
	now          func() time.Time
}

func NewRebuildService(
	identityRepo identity.Repository,
	marketRepo market.Repository,
	valueRepo value.Repository,
	profileSvc *ProfileService,
	validatorSvc *ValidatorService,
	duplicateSvc *DuplicateService,
	tuningSvc *TuningService,
	attributes AttributeSource,
	idGen idgen.Generator,
	logger *logging.Logger,
) *RebuildService {
	if logger == nil {
		logger = logging.Default()
	}

	return &RebuildService{
		identityRepo: identityRepo,
		marketRepo:   marketRepo,
		valueRepo:    valueRepo,
		profileSvc:   profileSvc,
		validatorSvc: validatorSvc,
		duplicateSvc: duplicateSvc,
		tuningSvc:    tuningSvc,
		attributes:   attributes,
		flexWeights:  valuation.DefaultFlexWeights(),
		elasticity:   valuation.DefaultElasticityCaps(),
		idGen:        idGen,
		logger:       logger,
		now:          time.Now,
	}
}

// playerComputation is one player's state flowing through the stages.
type playerComputation struct {
	player     identity.PlayerIdentity
	rank       int
	marketRank *int
	percentile *float64

	rawValue        int
	multipliedValue int
	scarcity        valuation.ScarcityResult
	anchor          valuation.AnchorResult
	ageFactor       float64
	injuryFactor    float64
}

// RunRebuild executes the pipeline for one format. The duplicate scan
// and universe validation are hard gates: nothing is written unless
// both pass, and readers keep the previous snapshot until the new one
// is published atomically.
func (s *RebuildService) RunRebuild(ctx context.Context, in RebuildInput) (RebuildResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RebuildService.RunRebuild")
	defer span.End()

	started := s.now()

	if in.FormatKey == "" {
		return RebuildResult{}, fmt.Errorf("%w: format key is required", ErrInvalidInput)
	}
	leagueProfile, err := s.profileSvc.GetByFormatKey(ctx, in.FormatKey)
	if err != nil {
		return RebuildResult{}, err
	}

	// Gate 1: the duplicate scan. High-confidence findings abort.
	scan, err := s.duplicateSvc.DetectAll(ctx)
	if err != nil {
		return RebuildResult{}, err
	}
	if scan.ShouldBlockRebuild {
		return RebuildResult{}, fmt.Errorf("%w: %d high-confidence duplicates unresolved", ErrRebuildBlocked, scan.HighConfidence)
	}

	// Gate 2: universe validation. Critical issues abort.
	validation, err := s.validatorSvc.RequireValid(ctx, in.FormatKey)
	if err != nil {
		return RebuildResult{}, err
	}

	players, err := s.identityRepo.ListByStatus(ctx, identity.StatusActive)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("list active players: %w", err)
	}

	ranked, warnings, err := s.rankUniverse(ctx, players, leagueProfile)
	if err != nil {
		return RebuildResult{}, err
	}
	warnings = append(warnings, validation.Warnings...)

	cfg := s.tuningSvc.Config(ctx)
	decay := valuation.DecayFor(leagueProfile.Format)
	multipliers := tunedMultipliers(valuation.MultiplierMap(leagueProfile.Multipliers), cfg)

	// Stage 1: independent per-player computations in bounded batches.
	if err := s.computeBatched(ctx, ranked, decay, multipliers, cfg); err != nil {
		return RebuildResult{}, err
	}

	// Stage 2 barrier: scarcity needs every player's value at once.
	levels := valuation.ReplacementLevels(leagueProfile, s.flexWeights)
	scarcityInput := make([]valuation.ScarcityInput, len(ranked))
	for i, pc := range ranked {
		scarcityInput[i] = valuation.ScarcityInput{
			PlayerID: pc.player.ID,
			Position: pc.player.Position,
			Value:    pc.multipliedValue,
		}
	}
	scarcityResults := valuation.ApplyScarcityAdjustments(scarcityInput, levels, tunedElasticityCaps(s.elasticity, cfg))
	for i := range ranked {
		ranked[i].scarcity = scarcityResults[ranked[i].player.ID]
	}

	// Stage 3: market anchoring, again independent per player.
	anchored := s.anchorBatched(ctx, ranked, decay, cfg)

	snapshot, values, err := s.buildSnapshot(in.FormatKey, ranked)
	if err != nil {
		return RebuildResult{}, err
	}
	if err := s.valueRepo.PublishSnapshot(ctx, snapshot, values); err != nil {
		return RebuildResult{}, fmt.Errorf("publish snapshot: %w", err)
	}

	result := RebuildResult{
		SnapshotID:    snapshot.ID,
		FormatKey:     in.FormatKey,
		PlayerCount:   len(values),
		AnchoredCount: anchored,
		Warnings:      warnings,
		Duration:      s.now().Sub(started),
	}
	s.logger.InfoContext(ctx, "rebuild finished",
		"format_key", result.FormatKey,
		"snapshot_id", result.SnapshotID,
		"players", result.PlayerCount,
		"anchored", result.AnchoredCount,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// rankUniverse orders the active universe by market rank where known,
// with unranked players appended in a stable order behind them.
func (s *RebuildService) rankUniverse(ctx context.Context, players []identity.PlayerIdentity, leagueProfile profile.LeagueProfile) ([]*playerComputation, []string, error) {
	ranks, err := s.marketRepo.ListRanks(ctx, leagueProfile.FormatKey)
	if err != nil {
		return nil, nil, fmt.Errorf("list market ranks: %w", err)
	}
	rankByPlayer := make(map[string]market.Rank, len(ranks))
	for _, r := range ranks {
		rankByPlayer[r.PlayerID] = r
	}

	computations := make([]*playerComputation, 0, len(players))
	unranked := 0
	for i := range players {
		pc := &playerComputation{player: players[i]}
		if r, ok := rankByPlayer[players[i].ID]; ok {
			rank := r.Rank
			pc.marketRank = &rank
			pc.percentile = r.ProductionPercentile
		} else {
			unranked++
		}
		computations = append(computations, pc)
	}

	sort.SliceStable(computations, func(i, j int) bool {
		a, b := computations[i], computations[j]
		switch {
		case a.marketRank != nil && b.marketRank != nil:
			if *a.marketRank != *b.marketRank {
				return *a.marketRank < *b.marketRank
			}
			return a.player.ID < b.player.ID
		case a.marketRank != nil:
			return true
		case b.marketRank != nil:
			return false
		default:
			return a.player.ID < b.player.ID
		}
	})
	for i, pc := range computations {
		pc.rank = i + 1
	}

	var warnings []string
	if unranked > 0 {
		warnings = append(warnings, fmt.Sprintf("%d active players have no market rank", unranked))
	}
	return computations, warnings, nil
}

// computeBatched runs the pure per-player stage on a bounded pool.
// Each worker touches only its own computation, so the only shared
// state is the failure flag.
func (s *RebuildService) computeBatched(ctx context.Context, computations []*playerComputation, decay float64, multipliers map[identity.Position]float64, cfg tuning.Config) error {
	pool, err := ants.NewPool(rebuildBatchSize)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var failures atomic.Int32
	var firstErr atomic.Value
	var workers sync.WaitGroup

	for _, pc := range computations {
		pc := pc
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			pc.rawValue = valuation.RankToValue(pc.rank, decay)
			pc.multipliedValue = valuation.ApplyMultiplier(pc.rawValue, pc.player.Position, multipliers)

			pc.ageFactor = 1.0
			pc.injuryFactor = 1.0
			if s.attributes != nil {
				attrs, ok, attrErr := s.attributes.GetAttributes(ctx, pc.player.ID)
				if attrErr != nil {
					// Attribute lookups degrade to neutral factors
					// instead of failing the batch.
					s.logger.WarnContext(ctx, "attribute lookup failed",
						"player_id", pc.player.ID,
						"error", attrErr,
					)
				} else if ok {
					pc.ageFactor = valuation.WeightedFactor(valuation.AgeFactor(attrs.Age, pc.player.Position), cfg.AgeCurveWeight)
					pc.injuryFactor = valuation.InjuryFactor(attrs.InjuryStatus)
				}
			}
			productionFactor := 1.0
			if pc.percentile != nil {
				productionFactor = valuation.WeightedFactor(valuation.ProductionFactor(*pc.percentile), cfg.ProductionWeight)
			}
			pc.multipliedValue = scaleValue(pc.multipliedValue, pc.ageFactor*pc.injuryFactor*productionFactor)
		}); err != nil {
			workers.Done()
			failures.Add(1)
			firstErr.CompareAndSwap(nil, fmt.Errorf("submit player computation: %w", err))
		}
	}

	workers.Wait()
	if failures.Load() > 0 {
		return firstErr.Load().(error)
	}
	return nil
}

// anchorBatched runs the market anchor per player on a bounded pool
// and reports how many players had a market rank to anchor against.
func (s *RebuildService) anchorBatched(ctx context.Context, computations []*playerComputation, decay float64, cfg tuning.Config) int {
	pool, err := ants.NewPool(rebuildBatchSize)
	if err != nil {
		// Degrade to sequential anchoring rather than failing.
		for _, pc := range computations {
			pc.anchor = valuation.ApplyMarketAnchor(anchorInput(pc, decay), cfg)
		}
		return countAnchored(computations)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, pc := range computations {
		pc := pc
		workers.Add(1)
		if submitErr := pool.Submit(func() {
			defer workers.Done()
			pc.anchor = valuation.ApplyMarketAnchor(anchorInput(pc, decay), cfg)
		}); submitErr != nil {
			pc.anchor = valuation.ApplyMarketAnchor(anchorInput(pc, decay), cfg)
			workers.Done()
		}
	}
	workers.Wait()

	return countAnchored(computations)
}

func anchorInput(pc *playerComputation, decay float64) valuation.AnchorInput {
	return valuation.AnchorInput{
		PlayerID:             pc.player.ID,
		ModelValue:           pc.scarcity.AdjustedValue,
		ModelRank:            pc.rank,
		MarketRank:           pc.marketRank,
		ProductionPercentile: pc.percentile,
		Decay:                decay,
	}
}

func countAnchored(computations []*playerComputation) int {
	anchored := 0
	for _, pc := range computations {
		if pc.marketRank != nil {
			anchored++
		}
	}
	return anchored
}

func (s *RebuildService) buildSnapshot(formatKey string, computations []*playerComputation) (value.Snapshot, []value.PlayerValue, error) {
	snapshotID, err := s.idGen.NewID()
	if err != nil {
		return value.Snapshot{}, nil, fmt.Errorf("generate snapshot id: %w", err)
	}

	snapshot := value.Snapshot{
		ID:          snapshotID,
		FormatKey:   formatKey,
		PlayerCount: len(computations),
		Current:     true,
		CreatedAt:   s.now().UTC(),
	}

	values := make([]value.PlayerValue, 0, len(computations))
	for _, pc := range computations {
		values = append(values, value.PlayerValue{
			PlayerID:         pc.player.ID,
			SnapshotID:       snapshotID,
			FormatKey:        formatKey,
			Position:         pc.player.Position,
			Rank:             pc.rank,
			RawValue:         pc.rawValue,
			MultipliedValue:  pc.multipliedValue,
			ScarcityValue:    pc.scarcity.AdjustedValue,
			FinalValue:       pc.anchor.AnchoredValue,
			ReplacementValue: pc.scarcity.ReplacementValue,
			VOR:              pc.scarcity.VOR,
			AnchorStrength:   pc.anchor.AnchorStrength,
			Confidence:       pc.anchor.Confidence,
			AgeFactor:        pc.ageFactor,
			InjuryFactor:     pc.injuryFactor,
			Breakout:         pc.anchor.IsBreakoutProtected,
			Outlier:          pc.anchor.IsOutlier,
		})
	}
	return snapshot, values, nil
}

// tunedMultipliers rescales profile multipliers by the per-position
// tuning scale. A scale of 1 or an unset row keeps the profile value,
// and a position absent from the profile stays at the identity
// multiplier rather than picking up the bare scale.
func tunedMultipliers(base map[identity.Position]float64, cfg tuning.Config) map[identity.Position]float64 {
	scales := map[identity.Position]float64{
		identity.PositionQB: cfg.QBMultiplierScale,
		identity.PositionRB: cfg.RBMultiplierScale,
		identity.PositionWR: cfg.WRMultiplierScale,
		identity.PositionTE: cfg.TEMultiplierScale,
	}

	out := make(map[identity.Position]float64, len(base))
	for pos, m := range base {
		out[pos] = m
		if scale, ok := scales[pos]; ok && scale > 0 && scale != 1.0 {
			out[pos] = m * scale
		}
	}
	return out
}

// tunedElasticityCaps overlays tuned per-position cap maxima onto the
// built-in table. Floors are kept and raised to the cap when a tuned
// maximum drops below the floor.
func tunedElasticityCaps(base valuation.ElasticityCapTable, cfg tuning.Config) valuation.ElasticityCapTable {
	maxima := map[identity.Position]float64{
		identity.PositionQB: cfg.ElasticityCapQB,
		identity.PositionRB: cfg.ElasticityCapRB,
		identity.PositionWR: cfg.ElasticityCapWR,
		identity.PositionTE: cfg.ElasticityCapTE,
	}

	out := valuation.ElasticityCapTable{
		Version: base.Version,
		Caps:    make(map[identity.Position]valuation.ShareBounds, len(base.Caps)),
	}
	for pos, bounds := range base.Caps {
		if tuned, ok := maxima[pos]; ok && tuned > 0 {
			bounds.Max = tuned
			if bounds.Min > bounds.Max {
				bounds.Min = bounds.Max
			}
		}
		out.Caps[pos] = bounds
	}
	return out
}

func scaleValue(v int, factor float64) int {
	scaled := int(float64(v)*factor + 0.5)
	if scaled < 0 {
		return 0
	}
	if scaled > value.MaxValue {
		return value.MaxValue
	}
	return scaled
}
