package profile

import "context"

// Repository describes profile persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, id string) (LeagueProfile, bool, error)
	GetByFormatKey(ctx context.Context, formatKey string) (LeagueProfile, bool, error)
	ListAll(ctx context.Context) ([]LeagueProfile, error)
	Insert(ctx context.Context, p LeagueProfile) error
	SaveMultipliers(ctx context.Context, id string, multipliers []PositionMultiplier) error
}
