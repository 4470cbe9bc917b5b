package memory

import (
	"time"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/domain/market"
	"github.com/gridironlab/valuation-engine/internal/namematch"
)

// FormatKeySeed is the format key the seed market ranks are filed
// under. It matches the profile the dev server resolves on boot.
const FormatKeySeed = "dynasty_12team_sf_full_flex1_qb1_rb2_super_flex1_te1_wr3"

func intp(v int) *int { return &v }

func seedPlayer(id, sleeperID, name, team string, pos identity.Position, birthYear int) identity.PlayerIdentity {
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	return identity.PlayerIdentity{
		ID:             id,
		ExternalIDs:    map[identity.Source]string{identity.SourceSleeper: sleeperID},
		FullName:       name,
		NormalizedName: namematch.Normalize(name),
		BirthYear:      intp(birthYear),
		Team:           team,
		Position:       pos,
		Status:         identity.StatusActive,
		LastSeenSource: identity.SourceSleeper,
		LastSeenAt:     now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// SeedIdentities is a small offense-only universe for the dev server
// and smoke tests.
func SeedIdentities() []identity.PlayerIdentity {
	return []identity.PlayerIdentity{
		seedPlayer("ply-qb-01", "4046", "Patrick Mahomes", "KC", identity.PositionQB, 1995),
		seedPlayer("ply-qb-02", "6904", "Jalen Hurts", "PHI", identity.PositionQB, 1998),
		seedPlayer("ply-qb-03", "6770", "Joe Burrow", "CIN", identity.PositionQB, 1996),
		seedPlayer("ply-rb-01", "9509", "Bijan Robinson", "ATL", identity.PositionRB, 2002),
		seedPlayer("ply-rb-02", "9226", "Jahmyr Gibbs", "DET", identity.PositionRB, 2002),
		seedPlayer("ply-rb-03", "4866", "Saquon Barkley", "PHI", identity.PositionRB, 1997),
		seedPlayer("ply-wr-01", "7564", "Ja'Marr Chase", "CIN", identity.PositionWR, 2000),
		seedPlayer("ply-wr-02", "6794", "Justin Jefferson", "MIN", identity.PositionWR, 1999),
		seedPlayer("ply-wr-03", "8112", "CeeDee Lamb", "DAL", identity.PositionWR, 1999),
		seedPlayer("ply-wr-04", "9493", "Puka Nacua", "LAR", identity.PositionWR, 2001),
		seedPlayer("ply-te-01", "9484", "Sam LaPorta", "DET", identity.PositionTE, 2001),
		seedPlayer("ply-te-02", "5859", "Trey McBride", "ARI", identity.PositionTE, 1999),
	}
}

// SeedMarketRanks orders the seed universe by consensus.
func SeedMarketRanks() []market.Rank {
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	ranked := []string{
		"ply-wr-01", "ply-qb-02", "ply-rb-01", "ply-wr-02", "ply-qb-01",
		"ply-rb-02", "ply-wr-03", "ply-qb-03", "ply-wr-04", "ply-rb-03",
		"ply-te-01", "ply-te-02",
	}

	out := make([]market.Rank, 0, len(ranked))
	for i, playerID := range ranked {
		out = append(out, market.Rank{
			PlayerID:  playerID,
			FormatKey: FormatKeySeed,
			Rank:      i + 1,
			Source:    "seed",
			FetchedAt: now,
		})
	}
	return out
}
