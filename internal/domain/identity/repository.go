package identity

import "context"

// Repository describes identity persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, id string) (PlayerIdentity, bool, error)
	GetByExternalID(ctx context.Context, source Source, externalID string) (PlayerIdentity, bool, error)
	ListByNormalizedName(ctx context.Context, normalizedName string) ([]PlayerIdentity, error)
	ListByStatus(ctx context.Context, status Status) ([]PlayerIdentity, error)
	ListAll(ctx context.Context) ([]PlayerIdentity, error)
	Upsert(ctx context.Context, player PlayerIdentity) error
	UpdateStatus(ctx context.Context, id string, status Status) error
}
