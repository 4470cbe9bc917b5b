package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gridironlab/valuation-engine/internal/domain/conflict"
)

type ConflictRepository struct {
	mu     sync.RWMutex
	items  map[string]conflict.IdentityConflict
	orders []string
}

func NewConflictRepository() *ConflictRepository {
	return &ConflictRepository{
		items: make(map[string]conflict.IdentityConflict),
	}
}

func (r *ConflictRepository) GetByID(_ context.Context, id string) (conflict.IdentityConflict, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[id]
	return c, ok, nil
}

func (r *ConflictRepository) ListOpen(_ context.Context) ([]conflict.IdentityConflict, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []conflict.IdentityConflict
	for _, id := range r.orders {
		if c := r.items[id]; !c.Resolved {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *ConflictRepository) ListOpenForPlayer(_ context.Context, playerID string) ([]conflict.IdentityConflict, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []conflict.IdentityConflict
	for _, id := range r.orders {
		c := r.items[id]
		if !c.Resolved && (c.PlayerID == playerID || c.OtherPlayerID == playerID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *ConflictRepository) Upsert(_ context.Context, c conflict.IdentityConflict) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[c.ID]; !exists {
		r.orders = append(r.orders, c.ID)
	}
	r.items[c.ID] = c
	return nil
}

func (r *ConflictRepository) Resolve(_ context.Context, id string, resolution conflict.Resolution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[id]
	if !ok {
		return fmt.Errorf("conflict %s not found", id)
	}
	c.Resolved = true
	c.Resolution = resolution
	r.items[id] = c
	return nil
}
