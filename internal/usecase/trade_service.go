package usecase

import (
	"context"
	"fmt"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
	"github.com/gridironlab/valuation-engine/internal/valuation"
)

// TradeVerdict classifies a trade from side A's perspective.
type TradeVerdict string

const (
	VerdictFair        TradeVerdict = "fair"
	VerdictFavorable   TradeVerdict = "favorable"
	VerdictUnfavorable TradeVerdict = "unfavorable"
	VerdictSlightEdge  TradeVerdict = "slight_edge"
	VerdictSlightLoss  TradeVerdict = "slight_loss"
)

// TradeSide is one side of a proposed trade: players by id and draft
// picks by description.
type TradeSide struct {
	PlayerIDs []string
	Picks     []string
}

// TradeAsset is one valued piece of a trade side.
type TradeAsset struct {
	ID    string
	Kind  string
	Value int
}

// TradeEvaluation is the full breakdown of a proposed trade.
type TradeEvaluation struct {
	FormatKey  string
	SideA      []TradeAsset
	SideB      []TradeAsset
	TotalA     int
	TotalB     int
	Difference int
	PercentGap float64
	Verdict    TradeVerdict
}

// TradeService values proposed trades using effective values plus the
// draft pick price table.
type TradeService struct {
	effectiveSvc *EffectiveValueService
	tuningSvc    *TuningService
	logger       *logging.Logger
}

func NewTradeService(effectiveSvc *EffectiveValueService, tuningSvc *TuningService, logger *logging.Logger) *TradeService {
	if logger == nil {
		logger = logging.Default()
	}

	return &TradeService{
		effectiveSvc: effectiveSvc,
		tuningSvc:    tuningSvc,
		logger:       logger,
	}
}

// Evaluate totals both sides and classifies the gap relative to the
// smaller side, so a 200-point edge means more in a bench swap than
// in a blockbuster.
func (s *TradeService) Evaluate(ctx context.Context, formatKey string, sideA, sideB TradeSide) (TradeEvaluation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TradeService.Evaluate")
	defer span.End()

	if formatKey == "" {
		return TradeEvaluation{}, fmt.Errorf("%w: format key is required", ErrInvalidInput)
	}
	if len(sideA.PlayerIDs)+len(sideA.Picks) == 0 || len(sideB.PlayerIDs)+len(sideB.Picks) == 0 {
		return TradeEvaluation{}, fmt.Errorf("%w: both trade sides need at least one asset", ErrInvalidInput)
	}

	assetsA, totalA, err := s.valueSide(ctx, formatKey, sideA)
	if err != nil {
		return TradeEvaluation{}, err
	}
	assetsB, totalB, err := s.valueSide(ctx, formatKey, sideB)
	if err != nil {
		return TradeEvaluation{}, err
	}

	smaller := totalA
	if totalB < smaller {
		smaller = totalB
	}
	difference := totalA - totalB
	percentGap := 0.0
	if smaller > 0 {
		percentGap = float64(difference) / float64(smaller) * 100
	}

	cfg := s.tuningSvc.Config(ctx)
	evaluation := TradeEvaluation{
		FormatKey:  formatKey,
		SideA:      assetsA,
		SideB:      assetsB,
		TotalA:     totalA,
		TotalB:     totalB,
		Difference: difference,
		PercentGap: percentGap,
		Verdict:    classifyTrade(percentGap, cfg.FairTradeBand, cfg.GoodTradeThreshold),
	}

	s.logger.InfoContext(ctx, "trade evaluated",
		"format_key", formatKey,
		"total_a", totalA,
		"total_b", totalB,
		"verdict", evaluation.Verdict,
	)
	return evaluation, nil
}

func (s *TradeService) valueSide(ctx context.Context, formatKey string, side TradeSide) ([]TradeAsset, int, error) {
	assets := make([]TradeAsset, 0, len(side.PlayerIDs)+len(side.Picks))
	total := 0

	for _, playerID := range side.PlayerIDs {
		ev, err := s.effectiveSvc.Get(ctx, playerID, formatKey)
		if err != nil {
			return nil, 0, fmt.Errorf("value player %s: %w", playerID, err)
		}
		assets = append(assets, TradeAsset{ID: playerID, Kind: "player", Value: ev.EffectiveValue})
		total += ev.EffectiveValue
	}

	for _, pick := range side.Picks {
		v := valuation.PickValue(pick)
		if v == 0 {
			return nil, 0, fmt.Errorf("%w: unknown draft pick %q", ErrInvalidInput, pick)
		}
		assets = append(assets, TradeAsset{ID: pick, Kind: "pick", Value: v})
		total += v
	}

	return assets, total, nil
}

// RosterStrength grades one position group of a roster.
type RosterStrength string

const (
	StrengthElite     RosterStrength = "elite"
	StrengthStartable RosterStrength = "startable"
	StrengthThin      RosterStrength = "thin"
	StrengthEmpty     RosterStrength = "empty"
)

// corePositions is the fixed order position groups are reported in.
var corePositions = []identity.Position{
	identity.PositionQB,
	identity.PositionRB,
	identity.PositionTE,
	identity.PositionWR,
}

// PositionOutlook summarizes one position group of a roster against
// the league-wide board for the same position.
type PositionOutlook struct {
	Position      identity.Position
	Count         int
	TotalValue    int
	AverageValue  int
	TopPlayerID   string
	TopValue      int
	LeagueAverage int
	DeltaPercent  float64
	Strength      RosterStrength
	Surplus       bool
	Need          bool
}

// RosterAnalysis is the surplus/need breakdown of one roster, with
// trade rationale lines pairing each need with a surplus to deal from.
type RosterAnalysis struct {
	FormatKey string
	Positions []PositionOutlook
	Rationale []string
}

// AnalyzeRoster grades a roster position by position using effective
// values, then pairs weak groups with surplus groups into trade
// rationale. The roster is a flat set of player ids already on the
// current board; ids off the board fail the whole analysis.
func (s *TradeService) AnalyzeRoster(ctx context.Context, formatKey string, playerIDs []string) (RosterAnalysis, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TradeService.AnalyzeRoster")
	defer span.End()

	if formatKey == "" {
		return RosterAnalysis{}, fmt.Errorf("%w: format key is required", ErrInvalidInput)
	}
	if len(playerIDs) == 0 {
		return RosterAnalysis{}, fmt.Errorf("%w: roster needs at least one player", ErrInvalidInput)
	}

	board, err := s.effectiveSvc.List(ctx, formatKey)
	if err != nil {
		return RosterAnalysis{}, err
	}
	byPlayer := make(map[string]EffectiveValue, len(board))
	leagueTotal := make(map[identity.Position]int)
	leagueCount := make(map[identity.Position]int)
	for _, ev := range board {
		byPlayer[ev.PlayerID] = ev
		leagueTotal[ev.Position] += ev.EffectiveValue
		leagueCount[ev.Position]++
	}

	grouped := make(map[identity.Position][]EffectiveValue, len(corePositions))
	for _, playerID := range playerIDs {
		ev, ok := byPlayer[playerID]
		if !ok {
			return RosterAnalysis{}, fmt.Errorf("%w: player %s is not on the current board for format %s", ErrNotFound, playerID, formatKey)
		}
		grouped[ev.Position] = append(grouped[ev.Position], ev)
	}

	cfg := s.tuningSvc.Config(ctx)
	analysis := RosterAnalysis{FormatKey: formatKey}
	for _, pos := range corePositions {
		outlook := PositionOutlook{Position: pos}
		for _, ev := range grouped[pos] {
			outlook.Count++
			outlook.TotalValue += ev.EffectiveValue
			if ev.EffectiveValue > outlook.TopValue {
				outlook.TopValue = ev.EffectiveValue
				outlook.TopPlayerID = ev.PlayerID
			}
		}
		if outlook.Count > 0 {
			outlook.AverageValue = outlook.TotalValue / outlook.Count
		}
		if n := leagueCount[pos]; n > 0 {
			outlook.LeagueAverage = leagueTotal[pos] / n
		}
		if outlook.Count > 0 && outlook.LeagueAverage > 0 {
			outlook.DeltaPercent = float64(outlook.AverageValue-outlook.LeagueAverage) / float64(outlook.LeagueAverage) * 100
		}

		outlook.Strength = gradeStrength(outlook, cfg.ValueTierEliteFloor, cfg.ValueTierStartFloor)
		outlook.Surplus = outlook.Strength == StrengthElite &&
			outlook.Count >= 2 &&
			outlook.DeltaPercent >= cfg.BuyThreshold
		outlook.Need = outlook.Count == 0 ||
			(outlook.Strength != StrengthElite && outlook.DeltaPercent <= cfg.SellThreshold)

		analysis.Positions = append(analysis.Positions, outlook)
	}

	for _, need := range analysis.Positions {
		if !need.Need {
			continue
		}
		for _, surplus := range analysis.Positions {
			if !surplus.Surplus || surplus.Position == need.Position {
				continue
			}
			analysis.Rationale = append(analysis.Rationale,
				fmt.Sprintf("upgrade %s by dealing from the %s surplus", need.Position, surplus.Position))
		}
	}

	s.logger.InfoContext(ctx, "roster analyzed",
		"format_key", formatKey,
		"players", len(playerIDs),
		"rationale", len(analysis.Rationale),
	)
	return analysis, nil
}

// gradeStrength buckets a position group by its best player against
// the tuned value tier floors.
func gradeStrength(outlook PositionOutlook, eliteFloor, startFloor float64) RosterStrength {
	switch {
	case outlook.Count == 0:
		return StrengthEmpty
	case float64(outlook.TopValue) >= eliteFloor:
		return StrengthElite
	case float64(outlook.TopValue) >= startFloor:
		return StrengthStartable
	default:
		return StrengthThin
	}
}

func classifyTrade(percentGap, fairBand, goodThreshold float64) TradeVerdict {
	abs := percentGap
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs <= fairBand:
		return VerdictFair
	case percentGap > goodThreshold:
		return VerdictFavorable
	case percentGap < -goodThreshold:
		return VerdictUnfavorable
	case percentGap > 0:
		return VerdictSlightEdge
	default:
		return VerdictSlightLoss
	}
}
