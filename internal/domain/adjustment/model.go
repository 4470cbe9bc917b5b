package adjustment

import (
	"fmt"
	"time"
)

// TotalCap bounds the aggregate active adjustment for one player and
// format. Individual rows may sum past it; the overlay clamps.
const TotalCap = 1500

// TrendThreshold is the aggregate delta beyond which a player trends.
const TrendThreshold = 50

// Trend classifies the direction of a player's active adjustments.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// TrendOf buckets an aggregate adjustment delta.
func TrendOf(total int) Trend {
	switch {
	case total > TrendThreshold:
		return TrendUp
	case total < -TrendThreshold:
		return TrendDown
	default:
		return TrendNeutral
	}
}

// ValueAdjustment is one transient overlay delta on top of a player's
// snapshotted base value. Rows are never updated in place; a new row
// supersedes and old ones expire naturally.
type ValueAdjustment struct {
	ID         string
	PlayerID   string
	FormatKey  string
	Delta      int
	Reason     string
	Source     string
	Confidence int
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

func (a ValueAdjustment) Validate() error {
	if a.PlayerID == "" {
		return fmt.Errorf("adjustment requires a player id")
	}
	if a.FormatKey == "" {
		return fmt.Errorf("adjustment requires a format key")
	}
	if a.Delta == 0 {
		return fmt.Errorf("adjustment delta cannot be zero")
	}
	if a.Confidence < 1 || a.Confidence > 5 {
		return fmt.Errorf("adjustment confidence must be in [1,5], got %d", a.Confidence)
	}
	if a.Reason == "" {
		return fmt.Errorf("adjustment requires a reason")
	}

	return nil
}

// Active reports whether the adjustment still applies at now.
func (a ValueAdjustment) Active(now time.Time) bool {
	return a.ExpiresAt.After(now)
}

// ClampTotal bounds an aggregate delta to the default overlay cap.
func ClampTotal(total int) int {
	return ClampTotalTo(total, TotalCap)
}

// ClampTotalTo bounds an aggregate delta to a tuned overlay cap.
func ClampTotalTo(total, limit int) int {
	if limit <= 0 {
		limit = TotalCap
	}
	if total > limit {
		return limit
	}
	if total < -limit {
		return -limit
	}
	return total
}
