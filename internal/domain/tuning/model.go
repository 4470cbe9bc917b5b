package tuning

import (
	"fmt"
	"time"
)

// Category enumerates the tuning namespaces. Rows outside these are
// rejected at write time.
type Category string

const (
	CategoryWeights     Category = "weights"
	CategoryAnchor      Category = "anchor"
	CategoryElasticity  Category = "elasticity"
	CategoryMultipliers Category = "multipliers"
	CategoryAdjustments Category = "adjustments"
	CategoryTrade       Category = "trade"
)

var allCategories = map[Category]struct{}{
	CategoryWeights:     {},
	CategoryAnchor:      {},
	CategoryElasticity:  {},
	CategoryMultipliers: {},
	CategoryAdjustments: {},
	CategoryTrade:       {},
}

// Entry is one editable numeric knob stored as a key/value row.
type Entry struct {
	Category  Category
	Key       string
	Value     float64
	UpdatedAt time.Time
}

func (e Entry) Validate() error {
	if _, ok := allCategories[e.Category]; !ok {
		return fmt.Errorf("invalid tuning category: %s", e.Category)
	}
	if e.Key == "" {
		return fmt.Errorf("tuning entry requires a key")
	}

	return nil
}

// Config is the fully typed tuning surface the pipeline consumes.
// Pipeline code only ever sees a merged Config, never raw entries, so
// a partially populated table can never reach valuation logic.
type Config struct {
	ProductionWeight float64
	AgeCurveWeight   float64

	AnchorTier1Strength float64
	AnchorTier2Strength float64
	AnchorTier3Strength float64
	AnchorTier4Strength float64
	BreakoutDampening   float64
	OutlierStrengthCap  float64

	ElasticityCapQB float64
	ElasticityCapRB float64
	ElasticityCapWR float64
	ElasticityCapTE float64

	QBMultiplierScale float64
	RBMultiplierScale float64
	WRMultiplierScale float64
	TEMultiplierScale float64

	AdjustmentTotalCap float64

	BuyThreshold  float64
	SellThreshold float64

	FairTradeBand       float64
	GoodTradeThreshold  float64
	ValueTierEliteFloor float64
	ValueTierStartFloor float64
}

// Defaults returns the built-in tuning values. Every knob must have a
// default; missing database rows fall back here instead of failing.
func Defaults() Config {
	return Config{
		ProductionWeight: 1.0,
		AgeCurveWeight:   1.0,

		AnchorTier1Strength: 0.15,
		AnchorTier2Strength: 0.20,
		AnchorTier3Strength: 0.25,
		AnchorTier4Strength: 0.35,
		BreakoutDampening:   0.4,
		OutlierStrengthCap:  0.25,

		ElasticityCapQB: 0.18,
		ElasticityCapRB: 0.30,
		ElasticityCapWR: 0.45,
		ElasticityCapTE: 0.12,

		QBMultiplierScale: 1.0,
		RBMultiplierScale: 1.0,
		WRMultiplierScale: 1.0,
		TEMultiplierScale: 1.0,

		AdjustmentTotalCap: 1500,

		BuyThreshold:  10,
		SellThreshold: -10,

		FairTradeBand:       5,
		GoodTradeThreshold:  10,
		ValueTierEliteFloor: 8000,
		ValueTierStartFloor: 5000,
	}
}

// MergeWithDefaults overlays stored entries onto the defaults. Unknown
// keys are ignored rather than failing the merge.
func MergeWithDefaults(entries []Entry) Config {
	cfg := Defaults()
	for _, e := range entries {
		switch e.Category {
		case CategoryWeights:
			switch e.Key {
			case "production_weight":
				cfg.ProductionWeight = e.Value
			case "age_curve_weight":
				cfg.AgeCurveWeight = e.Value
			}
		case CategoryAnchor:
			switch e.Key {
			case "tier1_strength":
				cfg.AnchorTier1Strength = e.Value
			case "tier2_strength":
				cfg.AnchorTier2Strength = e.Value
			case "tier3_strength":
				cfg.AnchorTier3Strength = e.Value
			case "tier4_strength":
				cfg.AnchorTier4Strength = e.Value
			case "breakout_dampening":
				cfg.BreakoutDampening = e.Value
			case "outlier_strength_cap":
				cfg.OutlierStrengthCap = e.Value
			}
		case CategoryElasticity:
			switch e.Key {
			case "qb_cap":
				cfg.ElasticityCapQB = e.Value
			case "rb_cap":
				cfg.ElasticityCapRB = e.Value
			case "wr_cap":
				cfg.ElasticityCapWR = e.Value
			case "te_cap":
				cfg.ElasticityCapTE = e.Value
			}
		case CategoryMultipliers:
			switch e.Key {
			case "qb_scale":
				cfg.QBMultiplierScale = e.Value
			case "rb_scale":
				cfg.RBMultiplierScale = e.Value
			case "wr_scale":
				cfg.WRMultiplierScale = e.Value
			case "te_scale":
				cfg.TEMultiplierScale = e.Value
			}
		case CategoryAdjustments:
			if e.Key == "total_cap" {
				cfg.AdjustmentTotalCap = e.Value
			}
		case CategoryTrade:
			switch e.Key {
			case "buy_threshold":
				cfg.BuyThreshold = e.Value
			case "sell_threshold":
				cfg.SellThreshold = e.Value
			case "fair_band":
				cfg.FairTradeBand = e.Value
			case "good_threshold":
				cfg.GoodTradeThreshold = e.Value
			case "tier_elite_floor":
				cfg.ValueTierEliteFloor = e.Value
			case "tier_start_floor":
				cfg.ValueTierStartFloor = e.Value
			}
		}
	}

	return cfg
}
