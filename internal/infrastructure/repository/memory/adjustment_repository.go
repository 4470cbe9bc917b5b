package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gridironlab/valuation-engine/internal/domain/adjustment"
)

type AdjustmentRepository struct {
	mu     sync.RWMutex
	items  map[string]adjustment.ValueAdjustment
	orders []string
}

func NewAdjustmentRepository() *AdjustmentRepository {
	return &AdjustmentRepository{
		items: make(map[string]adjustment.ValueAdjustment),
	}
}

func (r *AdjustmentRepository) ListActive(_ context.Context, playerID, formatKey string, now time.Time) ([]adjustment.ValueAdjustment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []adjustment.ValueAdjustment
	for _, id := range r.orders {
		a := r.items[id]
		if a.PlayerID == playerID && a.FormatKey == formatKey && a.Active(now) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *AdjustmentRepository) ListAllActive(_ context.Context, formatKey string, now time.Time) ([]adjustment.ValueAdjustment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []adjustment.ValueAdjustment
	for _, id := range r.orders {
		a := r.items[id]
		if a.FormatKey == formatKey && a.Active(now) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *AdjustmentRepository) Insert(_ context.Context, a adjustment.ValueAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[a.ID]; !exists {
		r.orders = append(r.orders, a.ID)
	}
	r.items[a.ID] = a
	return nil
}

func (r *AdjustmentRepository) DeleteExpired(_ context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	kept := r.orders[:0]
	for _, id := range r.orders {
		if a := r.items[id]; !a.ExpiresAt.After(before) {
			delete(r.items, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	r.orders = kept
	return deleted, nil
}
