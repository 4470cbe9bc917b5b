package market

import (
	"fmt"
	"time"
)

// Rank is one external consensus rank for a player in a format,
// refreshed by a feed on its own schedule.
type Rank struct {
	PlayerID             string
	FormatKey            string
	Rank                 int
	ProductionPercentile *float64
	Source               string
	FetchedAt            time.Time
}

func (r Rank) Validate() error {
	if r.PlayerID == "" {
		return fmt.Errorf("market rank requires a player id")
	}
	if r.FormatKey == "" {
		return fmt.Errorf("market rank requires a format key")
	}
	if r.Rank < 1 {
		return fmt.Errorf("market rank must be >= 1, got %d", r.Rank)
	}
	if r.ProductionPercentile != nil && (*r.ProductionPercentile < 0 || *r.ProductionPercentile > 100) {
		return fmt.Errorf("production percentile must be in [0,100], got %v", *r.ProductionPercentile)
	}

	return nil
}
