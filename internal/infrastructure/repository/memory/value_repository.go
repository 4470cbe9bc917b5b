package memory

import (
	"context"
	"sync"

	"github.com/gridironlab/valuation-engine/internal/domain/value"
)

type ValueRepository struct {
	mu        sync.RWMutex
	snapshots map[string]value.Snapshot
	values    map[string][]value.PlayerValue
	current   map[string]string
}

func NewValueRepository() *ValueRepository {
	return &ValueRepository{
		snapshots: make(map[string]value.Snapshot),
		values:    make(map[string][]value.PlayerValue),
		current:   make(map[string]string),
	}
}

func (r *ValueRepository) GetCurrentSnapshot(_ context.Context, formatKey string) (value.Snapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.current[formatKey]
	if !ok {
		return value.Snapshot{}, false, nil
	}
	return r.snapshots[id], true, nil
}

func (r *ValueRepository) GetSnapshotByID(_ context.Context, id string) (value.Snapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.snapshots[id]
	return s, ok, nil
}

func (r *ValueRepository) GetPlayerValue(_ context.Context, snapshotID, playerID string) (value.PlayerValue, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.values[snapshotID] {
		if v.PlayerID == playerID {
			return v, true, nil
		}
	}
	return value.PlayerValue{}, false, nil
}

func (r *ValueRepository) ListValues(_ context.Context, snapshotID string) ([]value.PlayerValue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]value.PlayerValue(nil), r.values[snapshotID]...), nil
}

// PublishSnapshot stores the rows and flips the current pointer in one
// critical section, so readers see either the old or the new snapshot.
func (r *ValueRepository) PublishSnapshot(_ context.Context, snapshot value.Snapshot, values []value.PlayerValue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previousID, ok := r.current[snapshot.FormatKey]; ok {
		previous := r.snapshots[previousID]
		previous.Current = false
		r.snapshots[previousID] = previous
	}

	snapshot.Current = true
	r.snapshots[snapshot.ID] = snapshot
	r.values[snapshot.ID] = append([]value.PlayerValue(nil), values...)
	r.current[snapshot.FormatKey] = snapshot.ID
	return nil
}

func (r *ValueRepository) DeleteOrphanValues(_ context.Context, validPlayerIDs map[string]struct{}) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for snapshotID, rows := range r.values {
		kept := rows[:0]
		for _, row := range rows {
			if _, ok := validPlayerIDs[row.PlayerID]; ok {
				kept = append(kept, row)
			} else {
				deleted++
			}
		}
		r.values[snapshotID] = kept
	}
	return deleted, nil
}
