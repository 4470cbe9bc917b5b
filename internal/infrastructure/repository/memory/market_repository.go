package memory

import (
	"context"
	"sync"

	"github.com/gridironlab/valuation-engine/internal/domain/market"
)

type MarketRepository struct {
	mu    sync.RWMutex
	ranks map[string]market.Rank
	order []string
}

func rankKey(playerID, formatKey string) string {
	return playerID + "|" + formatKey
}

func NewMarketRepository(ranks []market.Rank) *MarketRepository {
	r := &MarketRepository{
		ranks: make(map[string]market.Rank, len(ranks)),
	}
	for _, rank := range ranks {
		key := rankKey(rank.PlayerID, rank.FormatKey)
		r.ranks[key] = rank
		r.order = append(r.order, key)
	}
	return r
}

func (r *MarketRepository) GetRank(_ context.Context, playerID, formatKey string) (market.Rank, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rank, ok := r.ranks[rankKey(playerID, formatKey)]
	return rank, ok, nil
}

func (r *MarketRepository) ListRanks(_ context.Context, formatKey string) ([]market.Rank, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []market.Rank
	for _, key := range r.order {
		if rank := r.ranks[key]; rank.FormatKey == formatKey {
			out = append(out, rank)
		}
	}
	return out, nil
}

func (r *MarketRepository) UpsertBatch(_ context.Context, ranks []market.Rank) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rank := range ranks {
		key := rankKey(rank.PlayerID, rank.FormatKey)
		if _, exists := r.ranks[key]; !exists {
			r.order = append(r.order, key)
		}
		r.ranks[key] = rank
	}
	return nil
}
