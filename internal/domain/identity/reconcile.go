package identity

import "fmt"

// FieldChange records one accepted attribute update during reconcile.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
	Source   Source
}

// Rejection records one refused attribute update and why.
type Rejection struct {
	Field  string
	Value  string
	Source Source
	Reason string
}

// AllowTeamUpdate decides whether an incoming team attribute may
// overwrite the stored one. A strictly higher-priority source always
// wins; an equal-priority source needs strong record confidence.
func AllowTeamUpdate(current PlayerIdentity, source Source, confidence float64) (bool, string) {
	cur := current.LastSeenSource.Priority()
	in := source.Priority()

	switch {
	case in > cur:
		return true, ""
	case in == cur && confidence >= 0.95:
		return true, ""
	case in == cur:
		return false, fmt.Sprintf("equal-priority source %s needs confidence >= 0.95, got %.2f", source, confidence)
	default:
		return false, fmt.Sprintf("source %s (priority %d) cannot overwrite %s (priority %d)", source, in, current.LastSeenSource, cur)
	}
}

// AllowPositionChange decides whether a position update may be applied.
// Moves across the offense/defense boundary are the most damaging kind
// of identity error, so they require the official roster feed and a
// near-certain record. Changes within the defensive front (EDGE players
// recorded as DL on one feed and LB on another) are routine and free.
func AllowPositionChange(current PlayerIdentity, proposed Position, proposedSub SubPosition, source Source, confidence float64) (bool, string) {
	if proposed == current.Position {
		return true, ""
	}
	if _, ok := AllPositions[proposed]; !ok {
		return false, fmt.Sprintf("unknown position %s", proposed)
	}

	if isEdgeShuffle(current, proposed, proposedSub) {
		return true, ""
	}

	curGroup := GroupOf(current.Position)
	newGroup := GroupOf(proposed)
	if curGroup != newGroup {
		if source != SourceOfficialRoster {
			return false, fmt.Sprintf("cross-group position change %s -> %s requires the official roster feed, got %s", current.Position, proposed, source)
		}
		if confidence < 0.95 {
			return false, fmt.Sprintf("cross-group position change %s -> %s requires confidence >= 0.95, got %.2f", current.Position, proposed, confidence)
		}
		return true, ""
	}

	return AllowTeamUpdate(current, source, confidence)
}

// isEdgeShuffle reports whether the change is an EDGE player being
// re-bucketed between DL and LB, which feeds disagree on constantly.
func isEdgeShuffle(current PlayerIdentity, proposed Position, proposedSub SubPosition) bool {
	frontSeven := func(p Position) bool { return p == PositionDL || p == PositionLB }
	if !frontSeven(current.Position) || !frontSeven(proposed) {
		return false
	}
	return current.SubPosition == SubPositionEdge || proposedSub == SubPositionEdge
}
