package httpapi

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gridironlab/valuation-engine/internal/domain/adjustment"
	"github.com/gridironlab/valuation-engine/internal/domain/conflict"
	"github.com/gridironlab/valuation-engine/internal/domain/profile"
	"github.com/gridironlab/valuation-engine/internal/domain/tuning"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
	"github.com/gridironlab/valuation-engine/internal/usecase"
)

type Handler struct {
	identityService   *usecase.IdentityService
	profileService    *usecase.ProfileService
	effectiveService  *usecase.EffectiveValueService
	tradeService      *usecase.TradeService
	adjustmentService *usecase.AdjustmentService
	tuningService     *usecase.TuningService
	conflictService   *usecase.ConflictService
	duplicateService  *usecase.DuplicateService
	validatorService  *usecase.ValidatorService
	rebuildService    *usecase.RebuildService
	syncService       *usecase.SyncService
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	identityService *usecase.IdentityService,
	profileService *usecase.ProfileService,
	effectiveService *usecase.EffectiveValueService,
	tradeService *usecase.TradeService,
	adjustmentService *usecase.AdjustmentService,
	tuningService *usecase.TuningService,
	conflictService *usecase.ConflictService,
	duplicateService *usecase.DuplicateService,
	validatorService *usecase.ValidatorService,
	rebuildService *usecase.RebuildService,
	syncService *usecase.SyncService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		identityService:   identityService,
		profileService:    profileService,
		effectiveService:  effectiveService,
		tradeService:      tradeService,
		adjustmentService: adjustmentService,
		tuningService:     tuningService,
		conflictService:   conflictService,
		duplicateService:  duplicateService,
		validatorService:  validatorService,
		rebuildService:    rebuildService,
		syncService:       syncService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type resolveFormatRequest struct {
	Format        string         `json:"format" validate:"required,oneof=dynasty redraft"`
	NumTeams      int            `json:"num_teams" validate:"required,gte=2,lte=32"`
	Superflex     bool           `json:"superflex"`
	PPR           float64        `json:"ppr" validate:"gte=0,lte=2"`
	TEPremiumPPR  float64        `json:"te_premium_ppr" validate:"gte=0,lte=2"`
	IDPEnabled    bool           `json:"idp_enabled"`
	IDPPreset     string         `json:"idp_preset" validate:"omitempty,oneof=basic advanced"`
	StartingSlots map[string]int `json:"starting_slots" validate:"required,min=1"`
	BenchSize     int            `json:"bench_size" validate:"gte=0,lte=40"`
}

type tradeSideRequest struct {
	PlayerIDs []string `json:"player_ids" validate:"omitempty,dive,required"`
	Picks     []string `json:"picks" validate:"omitempty,dive,required"`
}

type evaluateTradeRequest struct {
	FormatKey string           `json:"format_key" validate:"required"`
	SideA     tradeSideRequest `json:"side_a"`
	SideB     tradeSideRequest `json:"side_b"`
}

type analyzeRosterRequest struct {
	PlayerIDs []string `json:"player_ids" validate:"required,min=1,dive,required"`
}

type createAdjustmentRequest struct {
	PlayerID   string `json:"player_id" validate:"required"`
	FormatKey  string `json:"format_key" validate:"required"`
	Delta      int    `json:"delta" validate:"required"`
	Reason     string `json:"reason" validate:"required,max=500"`
	Source     string `json:"source" validate:"omitempty,max=40"`
	Confidence int    `json:"confidence" validate:"required,gte=1,lte=5"`
	TTLHours   int    `json:"ttl_hours" validate:"required,gt=0,lte=8760"`
}

type resolveConflictRequest struct {
	Resolution string `json:"resolution" validate:"required,oneof=merged dismissed split"`
}

type saveTuningEntriesRequest struct {
	Entries []tuningEntryRecord `json:"entries" validate:"required,min=1,dive"`
}

type tuningEntryRecord struct {
	Category string  `json:"category" validate:"required"`
	Key      string  `json:"key" validate:"required,max=80"`
	Value    float64 `json:"value"`
}

type rebuildJobRequest struct {
	FormatKey string `json:"format_key" validate:"required"`
}

type syncRanksJobRequest struct {
	FormatKey string `json:"format_key" validate:"required"`
}

type profileDTO struct {
	ID            string                 `json:"id"`
	FormatKey     string                 `json:"format_key"`
	Format        string                 `json:"format"`
	NumTeams      int                    `json:"num_teams"`
	Superflex     bool                   `json:"superflex"`
	PPR           float64                `json:"ppr"`
	TEPremiumPPR  float64                `json:"te_premium_ppr"`
	IDPEnabled    bool                   `json:"idp_enabled"`
	IDPPreset     string                 `json:"idp_preset,omitempty"`
	StartingSlots map[string]int         `json:"starting_slots"`
	BenchSize     int                    `json:"bench_size"`
	Multipliers   []profileMultiplierDTO `json:"multipliers,omitempty"`
	CreatedAtUTC  string                 `json:"created_at_utc,omitempty"`
	UpdatedAtUTC  string                 `json:"updated_at_utc,omitempty"`
}

type profileMultiplierDTO struct {
	Position   string  `json:"position"`
	Multiplier float64 `json:"multiplier"`
}

type effectiveValueDTO struct {
	PlayerID       string          `json:"player_id"`
	FormatKey      string          `json:"format_key"`
	Position       string          `json:"position"`
	Rank           int             `json:"rank"`
	BaseValue      int             `json:"base_value"`
	Adjustment     int             `json:"adjustment"`
	EffectiveValue int             `json:"effective_value"`
	Trend          string          `json:"trend"`
	Adjustments    []adjustmentDTO `json:"adjustments,omitempty"`
}

type adjustmentDTO struct {
	ID           string `json:"id"`
	PlayerID     string `json:"player_id"`
	FormatKey    string `json:"format_key"`
	Delta        int    `json:"delta"`
	Reason       string `json:"reason"`
	Source       string `json:"source,omitempty"`
	Confidence   int    `json:"confidence"`
	ExpiresAtUTC string `json:"expires_at_utc"`
	CreatedAtUTC string `json:"created_at_utc"`
}

type playerAdjustmentsDTO struct {
	PlayerID    string          `json:"player_id"`
	FormatKey   string          `json:"format_key"`
	ActiveTotal int             `json:"active_total"`
	Trend       string          `json:"trend"`
	Adjustments []adjustmentDTO `json:"adjustments"`
}

type conflictDTO struct {
	ID            string  `json:"id"`
	PlayerID      string  `json:"player_id"`
	OtherPlayerID string  `json:"other_player_id"`
	Type          string  `json:"type"`
	Confidence    float64 `json:"confidence"`
	Reason        string  `json:"reason"`
	Resolved      bool    `json:"resolved"`
	Resolution    string  `json:"resolution,omitempty"`
	Blocking      bool    `json:"blocking"`
	CreatedAtUTC  string  `json:"created_at_utc"`
	ResolvedAtUTC string  `json:"resolved_at_utc,omitempty"`
}

type tradeAssetDTO struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Value int    `json:"value"`
}

type tradeEvaluationDTO struct {
	FormatKey  string          `json:"format_key"`
	SideA      []tradeAssetDTO `json:"side_a"`
	SideB      []tradeAssetDTO `json:"side_b"`
	TotalA     int             `json:"total_a"`
	TotalB     int             `json:"total_b"`
	Difference int             `json:"difference"`
	PercentGap float64         `json:"percent_gap"`
	Verdict    string          `json:"verdict"`
}

type positionOutlookDTO struct {
	Position      string  `json:"position"`
	Count         int     `json:"count"`
	TotalValue    int     `json:"total_value"`
	AverageValue  int     `json:"average_value"`
	TopPlayerID   string  `json:"top_player_id,omitempty"`
	TopValue      int     `json:"top_value"`
	LeagueAverage int     `json:"league_average"`
	DeltaPercent  float64 `json:"delta_percent"`
	Strength      string  `json:"strength"`
	Surplus       bool    `json:"surplus"`
	Need          bool    `json:"need"`
}

type rosterAnalysisDTO struct {
	FormatKey string               `json:"format_key"`
	Positions []positionOutlookDTO `json:"positions"`
	Rationale []string             `json:"rationale,omitempty"`
}

type tuningConfigDTO struct {
	ProductionWeight float64 `json:"production_weight"`
	AgeCurveWeight   float64 `json:"age_curve_weight"`

	AnchorTier1Strength float64 `json:"anchor_tier1_strength"`
	AnchorTier2Strength float64 `json:"anchor_tier2_strength"`
	AnchorTier3Strength float64 `json:"anchor_tier3_strength"`
	AnchorTier4Strength float64 `json:"anchor_tier4_strength"`
	BreakoutDampening   float64 `json:"breakout_dampening"`
	OutlierStrengthCap  float64 `json:"outlier_strength_cap"`

	ElasticityCapQB float64 `json:"elasticity_cap_qb"`
	ElasticityCapRB float64 `json:"elasticity_cap_rb"`
	ElasticityCapWR float64 `json:"elasticity_cap_wr"`
	ElasticityCapTE float64 `json:"elasticity_cap_te"`

	QBMultiplierScale float64 `json:"qb_multiplier_scale"`
	RBMultiplierScale float64 `json:"rb_multiplier_scale"`
	WRMultiplierScale float64 `json:"wr_multiplier_scale"`
	TEMultiplierScale float64 `json:"te_multiplier_scale"`

	AdjustmentTotalCap float64 `json:"adjustment_total_cap"`

	BuyThreshold  float64 `json:"buy_threshold"`
	SellThreshold float64 `json:"sell_threshold"`

	FairTradeBand       float64 `json:"fair_trade_band"`
	GoodTradeThreshold  float64 `json:"good_trade_threshold"`
	ValueTierEliteFloor float64 `json:"value_tier_elite_floor"`
	ValueTierStartFloor float64 `json:"value_tier_start_floor"`
}

type tuningOutcomeDTO struct {
	Category string `json:"category"`
	Key      string `json:"key"`
	Saved    bool   `json:"saved"`
	Message  string `json:"message,omitempty"`
}

type validationResultDTO struct {
	Valid    bool               `json:"valid"`
	Critical []string           `json:"critical,omitempty"`
	Warnings []string           `json:"warnings,omitempty"`
	Stats    validationStatsDTO `json:"stats"`
}

type validationStatsDTO struct {
	TotalPlayers    int `json:"total_players"`
	ActivePlayers   int `json:"active_players"`
	OpenConflicts   int `json:"open_conflicts"`
	BlockingCount   int `json:"blocking_count"`
	OrphanValueRows int `json:"orphan_value_rows"`
}

type rebuildResultDTO struct {
	SnapshotID    string   `json:"snapshot_id"`
	FormatKey     string   `json:"format_key"`
	PlayerCount   int      `json:"player_count"`
	AnchoredCount int      `json:"anchored_count"`
	Warnings      []string `json:"warnings,omitempty"`
	DurationMS    int64    `json:"duration_ms"`
}

type identitySyncResultDTO struct {
	Fetched   int `json:"fetched"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Ambiguous int `json:"ambiguous"`
	Failed    int `json:"failed"`
}

type marketSyncResultDTO struct {
	FormatKey string `json:"format_key"`
	Fetched   int    `json:"fetched"`
	Imported  int    `json:"imported"`
	Unmatched int    `json:"unmatched"`
}

type duplicateScanDTO struct {
	Conflicts          []conflictDTO `json:"conflicts"`
	HighConfidence     int           `json:"high_confidence"`
	MediumConfidence   int           `json:"medium_confidence"`
	LowConfidence      int           `json:"low_confidence"`
	ShouldBlockRebuild bool          `json:"should_block_rebuild"`
}

type sweepResultDTO struct {
	Removed int `json:"removed"`
}

type retireResultDTO struct {
	Retired int `json:"retired"`
}

func profileToDTO(ctx context.Context, p profile.LeagueProfile) profileDTO {
	ctx, span := startSpan(ctx, "httpapi.profileToDTO")
	defer span.End()

	slots := make(map[string]int, len(p.StartingSlots))
	for slot, count := range p.StartingSlots {
		slots[string(slot)] = count
	}

	var multipliers []profileMultiplierDTO
	for _, m := range p.Multipliers {
		multipliers = append(multipliers, profileMultiplierDTO{
			Position:   string(m.Position),
			Multiplier: m.Multiplier,
		})
	}

	return profileDTO{
		ID:            p.ID,
		FormatKey:     p.FormatKey,
		Format:        string(p.Format),
		NumTeams:      p.NumTeams,
		Superflex:     p.Superflex,
		PPR:           p.PPR,
		TEPremiumPPR:  p.TEPremiumPPR,
		IDPEnabled:    p.IDPEnabled,
		IDPPreset:     string(p.IDPPreset),
		StartingSlots: slots,
		BenchSize:     p.BenchSize,
		Multipliers:   multipliers,
		CreatedAtUTC:  formatOptionalTime(p.CreatedAt),
		UpdatedAtUTC:  formatOptionalTime(p.UpdatedAt),
	}
}

func effectiveValueToDTO(ctx context.Context, v usecase.EffectiveValue) effectiveValueDTO {
	ctx, span := startSpan(ctx, "httpapi.effectiveValueToDTO")
	defer span.End()

	adjustments := make([]adjustmentDTO, 0, len(v.Adjustments))
	for _, a := range v.Adjustments {
		adjustments = append(adjustments, adjustmentToDTO(ctx, a))
	}

	return effectiveValueDTO{
		PlayerID:       v.PlayerID,
		FormatKey:      v.FormatKey,
		Position:       string(v.Position),
		Rank:           v.Rank,
		BaseValue:      v.BaseValue,
		Adjustment:     v.Adjustment,
		EffectiveValue: v.EffectiveValue,
		Trend:          string(v.Trend),
		Adjustments:    adjustments,
	}
}

func adjustmentToDTO(ctx context.Context, a adjustment.ValueAdjustment) adjustmentDTO {
	ctx, span := startSpan(ctx, "httpapi.adjustmentToDTO")
	defer span.End()

	return adjustmentDTO{
		ID:           a.ID,
		PlayerID:     a.PlayerID,
		FormatKey:    a.FormatKey,
		Delta:        a.Delta,
		Reason:       a.Reason,
		Source:       a.Source,
		Confidence:   a.Confidence,
		ExpiresAtUTC: a.ExpiresAt.UTC().Format(time.RFC3339),
		CreatedAtUTC: a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func conflictToDTO(ctx context.Context, c conflict.IdentityConflict) conflictDTO {
	ctx, span := startSpan(ctx, "httpapi.conflictToDTO")
	defer span.End()

	dto := conflictDTO{
		ID:            c.ID,
		PlayerID:      c.PlayerID,
		OtherPlayerID: c.OtherPlayerID,
		Type:          string(c.Type),
		Confidence:    c.Confidence,
		Reason:        c.Reason,
		Resolved:      c.Resolved,
		Resolution:    string(c.Resolution),
		Blocking:      c.Blocking(),
		CreatedAtUTC:  c.CreatedAt.UTC().Format(time.RFC3339),
	}
	if c.ResolvedAt != nil && !c.ResolvedAt.IsZero() {
		dto.ResolvedAtUTC = c.ResolvedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func tradeEvaluationToDTO(ctx context.Context, v usecase.TradeEvaluation) tradeEvaluationDTO {
	ctx, span := startSpan(ctx, "httpapi.tradeEvaluationToDTO")
	defer span.End()

	return tradeEvaluationDTO{
		FormatKey:  v.FormatKey,
		SideA:      tradeAssetsToDTO(v.SideA),
		SideB:      tradeAssetsToDTO(v.SideB),
		TotalA:     v.TotalA,
		TotalB:     v.TotalB,
		Difference: v.Difference,
		PercentGap: v.PercentGap,
		Verdict:    string(v.Verdict),
	}
}

func tradeAssetsToDTO(assets []usecase.TradeAsset) []tradeAssetDTO {
	out := make([]tradeAssetDTO, 0, len(assets))
	for _, a := range assets {
		out = append(out, tradeAssetDTO{ID: a.ID, Kind: a.Kind, Value: a.Value})
	}
	return out
}

func rosterAnalysisToDTO(ctx context.Context, v usecase.RosterAnalysis) rosterAnalysisDTO {
	ctx, span := startSpan(ctx, "httpapi.rosterAnalysisToDTO")
	defer span.End()

	positions := make([]positionOutlookDTO, 0, len(v.Positions))
	for _, p := range v.Positions {
		positions = append(positions, positionOutlookDTO{
			Position:      string(p.Position),
			Count:         p.Count,
			TotalValue:    p.TotalValue,
			AverageValue:  p.AverageValue,
			TopPlayerID:   p.TopPlayerID,
			TopValue:      p.TopValue,
			LeagueAverage: p.LeagueAverage,
			DeltaPercent:  p.DeltaPercent,
			Strength:      string(p.Strength),
			Surplus:       p.Surplus,
			Need:          p.Need,
		})
	}

	return rosterAnalysisDTO{
		FormatKey: v.FormatKey,
		Positions: positions,
		Rationale: v.Rationale,
	}
}

func tuningConfigToDTO(ctx context.Context, cfg tuning.Config) tuningConfigDTO {
	ctx, span := startSpan(ctx, "httpapi.tuningConfigToDTO")
	defer span.End()

	return tuningConfigDTO{
		ProductionWeight:    cfg.ProductionWeight,
		AgeCurveWeight:      cfg.AgeCurveWeight,
		AnchorTier1Strength: cfg.AnchorTier1Strength,
		AnchorTier2Strength: cfg.AnchorTier2Strength,
		AnchorTier3Strength: cfg.AnchorTier3Strength,
		AnchorTier4Strength: cfg.AnchorTier4Strength,
		BreakoutDampening:   cfg.BreakoutDampening,
		OutlierStrengthCap:  cfg.OutlierStrengthCap,
		ElasticityCapQB:     cfg.ElasticityCapQB,
		ElasticityCapRB:     cfg.ElasticityCapRB,
		ElasticityCapWR:     cfg.ElasticityCapWR,
		ElasticityCapTE:     cfg.ElasticityCapTE,
		QBMultiplierScale:   cfg.QBMultiplierScale,
		RBMultiplierScale:   cfg.RBMultiplierScale,
		WRMultiplierScale:   cfg.WRMultiplierScale,
		TEMultiplierScale:   cfg.TEMultiplierScale,
		AdjustmentTotalCap:  cfg.AdjustmentTotalCap,
		BuyThreshold:        cfg.BuyThreshold,
		SellThreshold:       cfg.SellThreshold,
		FairTradeBand:       cfg.FairTradeBand,
		GoodTradeThreshold:  cfg.GoodTradeThreshold,
		ValueTierEliteFloor: cfg.ValueTierEliteFloor,
		ValueTierStartFloor: cfg.ValueTierStartFloor,
	}
}

func validationResultToDTO(ctx context.Context, v usecase.ValidationResult) validationResultDTO {
	ctx, span := startSpan(ctx, "httpapi.validationResultToDTO")
	defer span.End()

	return validationResultDTO{
		Valid:    v.Valid,
		Critical: v.Critical,
		Warnings: v.Warnings,
		Stats: validationStatsDTO{
			TotalPlayers:    v.Stats.TotalPlayers,
			ActivePlayers:   v.Stats.ActivePlayers,
			OpenConflicts:   v.Stats.OpenConflicts,
			BlockingCount:   v.Stats.BlockingCount,
			OrphanValueRows: v.Stats.OrphanValueRows,
		},
	}
}

func formatOptionalTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
