package tuning

import "context"

// Repository describes tuning persistence needs from use cases.
type Repository interface {
	ListAll(ctx context.Context) ([]Entry, error)
	ListByCategory(ctx context.Context, category Category) ([]Entry, error)
	Upsert(ctx context.Context, e Entry) error
	Delete(ctx context.Context, category Category, key string) error
}
