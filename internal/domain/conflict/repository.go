package conflict

import "context"

// Repository describes conflict persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, id string) (IdentityConflict, bool, error)
	ListOpen(ctx context.Context) ([]IdentityConflict, error)
	ListOpenForPlayer(ctx context.Context, playerID string) ([]IdentityConflict, error)
	Upsert(ctx context.Context, c IdentityConflict) error
	Resolve(ctx context.Context, id string, resolution Resolution) error
}
