package sleeper

import (
	"context"
	"fmt"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/usecase"
)

// AttributeProvider resolves internal player ids to Sleeper ids and
// serves attributes from the client's cached players dump.
type AttributeProvider struct {
	client     *Client
	identities identity.Repository
}

func NewAttributeProvider(client *Client, identities identity.Repository) *AttributeProvider {
	return &AttributeProvider{client: client, identities: identities}
}

func (p *AttributeProvider) GetAttributes(ctx context.Context, playerID string) (usecase.PlayerAttributes, bool, error) {
	player, found, err := p.identities.GetByID(ctx, playerID)
	if err != nil {
		return usecase.PlayerAttributes{}, false, fmt.Errorf("resolve player %s: %w", playerID, err)
	}
	if !found {
		return usecase.PlayerAttributes{}, false, nil
	}

	sleeperID, ok := player.ExternalIDs[identity.SourceSleeper]
	if !ok {
		return usecase.PlayerAttributes{}, false, nil
	}
	attrs, ok := p.client.AttributesByExternalID(sleeperID)
	if !ok {
		return usecase.PlayerAttributes{}, false, nil
	}

	return usecase.PlayerAttributes{
		Age:          attrs.Age,
		InjuryStatus: attrs.InjuryStatus,
	}, true, nil
}

// RosterProvider reports rostered player ids across the configured
// leagues, translated to internal ids. Sleeper ids with no identity
// row pass through untranslated so the universe validator reports
// them as missing.
type RosterProvider struct {
	client     *Client
	identities identity.Repository
	leagueIDs  []string
}

func NewRosterProvider(client *Client, identities identity.Repository, leagueIDs []string) *RosterProvider {
	return &RosterProvider{client: client, identities: identities, leagueIDs: leagueIDs}
}

func (p *RosterProvider) ListRosteredPlayerIDs(ctx context.Context) ([]string, error) {
	sleeperIDs, err := p.client.FetchRosteredPlayerIDs(ctx, p.leagueIDs)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(sleeperIDs))
	for _, sleeperID := range sleeperIDs {
		player, found, err := p.identities.GetByExternalID(ctx, identity.SourceSleeper, sleeperID)
		if err != nil {
			return nil, fmt.Errorf("resolve rostered player %s: %w", sleeperID, err)
		}
		if found {
			out = append(out, player.ID)
			continue
		}
		out = append(out, sleeperID)
	}
	return out, nil
}
