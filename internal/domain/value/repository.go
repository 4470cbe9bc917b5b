package value

import "context"

// Repository describes snapshot persistence needs from use cases.
// PublishSnapshot must atomically insert the snapshot with its rows
// and flip the current pointer for the format in one transaction, so
// readers never observe a partially written rebuild.
type Repository interface {
	GetCurrentSnapshot(ctx context.Context, formatKey string) (Snapshot, bool, error)
	GetSnapshotByID(ctx context.Context, id string) (Snapshot, bool, error)
	GetPlayerValue(ctx context.Context, snapshotID, playerID string) (PlayerValue, bool, error)
	ListValues(ctx context.Context, snapshotID string) ([]PlayerValue, error)
	PublishSnapshot(ctx context.Context, snapshot Snapshot, values []PlayerValue) error
	DeleteOrphanValues(ctx context.Context, validPlayerIDs map[string]struct{}) (int, error)
}
