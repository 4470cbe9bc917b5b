package identity

import (
	"fmt"
	"time"
)

// Position is a primary fantasy position.
type Position string

const (
	PositionQB  Position = "QB"
	PositionRB  Position = "RB"
	PositionWR  Position = "WR"
	PositionTE  Position = "TE"
	PositionK   Position = "K"
	PositionDEF Position = "DEF"
	PositionDL  Position = "DL"
	PositionLB  Position = "LB"
	PositionDB  Position = "DB"
)

var AllPositions = map[Position]struct{}{
	PositionQB:  {},
	PositionRB:  {},
	PositionWR:  {},
	PositionTE:  {},
	PositionK:   {},
	PositionDEF: {},
	PositionDL:  {},
	PositionLB:  {},
	PositionDB:  {},
}

// SubPosition refines a primary position for scheme roles.
type SubPosition string

const (
	SubPositionEdge SubPosition = "EDGE"
	SubPositionIDL  SubPosition = "IDL"
	SubPositionSaf  SubPosition = "S"
	SubPositionCB   SubPosition = "CB"
)

// PositionGroup splits the position universe for mismatch detection.
type PositionGroup string

const (
	GroupOffense PositionGroup = "offense"
	GroupDefense PositionGroup = "defense"
	GroupSpecial PositionGroup = "special"
)

func GroupOf(p Position) PositionGroup {
	switch p {
	case PositionQB, PositionRB, PositionWR, PositionTE:
		return GroupOffense
	case PositionDL, PositionLB, PositionDB:
		return GroupDefense
	default:
		return GroupSpecial
	}
}

// Source identifies where an identity attribute came from.
type Source string

const (
	SourceOfficialRoster Source = "official_roster"
	SourceSleeper        Source = "sleeper"
	SourceESPN           Source = "espn"
	SourceFantasyPros    Source = "fantasypros"
	SourceKTC            Source = "ktc"
	SourceUserInput      Source = "user_input"
	SourceUnknown        Source = "unknown"
)

// Priority returns the authority rank of a source. Higher wins.
func (s Source) Priority() int {
	switch s {
	case SourceOfficialRoster:
		return 100
	case SourceSleeper, SourceESPN:
		return 80
	case SourceFantasyPros, SourceKTC:
		return 60
	case SourceUserInput:
		return 40
	default:
		return 0
	}
}

// Status is the lifecycle state of a player identity.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusRetired  Status = "retired"
)

// StalenessWindow is how long an identity may go unseen before it is
// transitioned to retired.
const StalenessWindow = 2 * 365 * 24 * time.Hour

// PlayerIdentity is the canonical record for one real player. At most
// one active identity may hold a given (source, external id) pair; the
// duplicate scan enforces that invariant.
type PlayerIdentity struct {
	ID             string
	ExternalIDs    map[Source]string
	FullName       string
	NormalizedName string
	BirthYear      *int
	Team           string
	Position       Position
	SubPosition    SubPosition
	Status         Status
	LastSeenSource Source
	LastSeenAt     time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (p PlayerIdentity) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.FullName == "" {
		return fmt.Errorf("player full name is required")
	}
	if p.NormalizedName == "" {
		return fmt.Errorf("player normalized name is required")
	}
	if _, ok := AllPositions[p.Position]; !ok {
		return fmt.Errorf("invalid player position: %s", p.Position)
	}
	switch p.Status {
	case StatusActive, StatusInactive, StatusRetired:
	default:
		return fmt.Errorf("invalid player status: %s", p.Status)
	}

	return nil
}

// ExternalID returns the id this identity holds for a source, if any.
func (p PlayerIdentity) ExternalID(source Source) (string, bool) {
	if p.ExternalIDs == nil {
		return "", false
	}
	id, ok := p.ExternalIDs[source]
	return id, ok && id != ""
}

// IncomingRecord is one row from an external feed before resolution.
type IncomingRecord struct {
	Source      Source
	ExternalIDs map[Source]string
	FullName    string
	BirthYear   *int
	Team        string
	Position    Position
	SubPosition SubPosition
	Confidence  float64
	SeenAt      time.Time
}
