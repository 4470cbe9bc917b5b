package market

import "context"

// Repository describes market rank persistence needs from use cases.
type Repository interface {
	GetRank(ctx context.Context, playerID, formatKey string) (Rank, bool, error)
	ListRanks(ctx context.Context, formatKey string) ([]Rank, error)
	UpsertBatch(ctx context.Context, ranks []Rank) error
}
