package adjustment

import (
	"context"
	"time"
)

// Repository describes adjustment persistence needs from use cases.
type Repository interface {
	ListActive(ctx context.Context, playerID, formatKey string, now time.Time) ([]ValueAdjustment, error)
	ListAllActive(ctx context.Context, formatKey string, now time.Time) ([]ValueAdjustment, error)
	Insert(ctx context.Context, a ValueAdjustment) error
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}
