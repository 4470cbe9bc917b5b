package conflict

import (
	"fmt"
	"time"
)

// Type classifies what kind of identity conflict was detected.
type Type string

const (
	TypeDuplicateName       Type = "duplicate_name"
	TypeDuplicateExternalID Type = "duplicate_external_id"
	TypePositionMismatch    Type = "position_mismatch"
	TypeTeamMismatch        Type = "team_mismatch"
	TypePossibleDuplicate   Type = "possible_duplicate"
)

// Resolution is the action a reviewer took on a conflict.
type Resolution string

const (
	ResolutionMerged    Resolution = "merged"
	ResolutionDismissed Resolution = "dismissed"
	ResolutionSplit     Resolution = "split"
)

// BlockThreshold is the confidence at or above which an open conflict
// blocks value rebuilds for the players involved.
const BlockThreshold = 0.90

// IdentityConflict is one suspected identity problem between two
// player records, scored by the duplicate scan.
type IdentityConflict struct {
	ID            string
	PlayerID      string
	OtherPlayerID string
	Type          Type
	Confidence    float64
	Reason        string
	Resolved      bool
	Resolution    Resolution
	CreatedAt     time.Time
	ResolvedAt    *time.Time
}

func (c IdentityConflict) Validate() error {
	if c.PlayerID == "" || c.OtherPlayerID == "" {
		return fmt.Errorf("conflict requires both player ids")
	}
	if c.PlayerID == c.OtherPlayerID {
		return fmt.Errorf("conflict cannot reference a player against itself")
	}
	switch c.Type {
	case TypeDuplicateName, TypeDuplicateExternalID, TypePositionMismatch, TypeTeamMismatch, TypePossibleDuplicate:
	default:
		return fmt.Errorf("invalid conflict type: %s", c.Type)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("conflict confidence must be in [0,1], got %v", c.Confidence)
	}

	return nil
}

// Blocking reports whether this conflict should stop rebuilds.
func (c IdentityConflict) Blocking() bool {
	return !c.Resolved && c.Confidence >= BlockThreshold
}
