package value

import (
	"fmt"
	"time"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
)

// MaxValue is the ceiling of the value scale. Rank 1 on the curve
// lands exactly here before multipliers.
const MaxValue = 10000

// Snapshot is one complete rebuild output for a format. Snapshots are
// immutable; readers only ever see a fully published one.
type Snapshot struct {
	ID          string
	FormatKey   string
	PlayerCount int
	Current     bool
	CreatedAt   time.Time
}

// PlayerValue is one player's valuation inside a snapshot, with every
// pipeline stage retained for debugging.
type PlayerValue struct {
	PlayerID         string
	SnapshotID       string
	FormatKey        string
	Position         identity.Position
	Rank             int
	RawValue         int
	MultipliedValue  int
	ScarcityValue    int
	FinalValue       int
	ReplacementValue int
	VOR              int
	AnchorStrength   float64
	Confidence       float64
	AgeFactor        float64
	InjuryFactor     float64
	Breakout         bool
	Outlier          bool
}

func (v PlayerValue) Validate() error {
	if v.PlayerID == "" {
		return fmt.Errorf("player value requires a player id")
	}
	if v.SnapshotID == "" {
		return fmt.Errorf("player value requires a snapshot id")
	}
	if v.FinalValue < 0 || v.FinalValue > MaxValue {
		return fmt.Errorf("final value %d out of range [0,%d]", v.FinalValue, MaxValue)
	}

	return nil
}
