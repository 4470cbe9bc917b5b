package memory

import (
	"context"
	"sync"

	"github.com/gridironlab/valuation-engine/internal/domain/tuning"
)

type TuningRepository struct {
	mu    sync.RWMutex
	items map[string]tuning.Entry
	order []string
}

func entryKey(category tuning.Category, key string) string {
	return string(category) + "|" + key
}

func NewTuningRepository(entries []tuning.Entry) *TuningRepository {
	r := &TuningRepository{
		items: make(map[string]tuning.Entry, len(entries)),
	}
	for _, e := range entries {
		key := entryKey(e.Category, e.Key)
		r.items[key] = e
		r.order = append(r.order, key)
	}
	return r
}

func (r *TuningRepository) ListAll(_ context.Context) ([]tuning.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tuning.Entry, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.items[key])
	}
	return out, nil
}

func (r *TuningRepository) ListByCategory(_ context.Context, category tuning.Category) ([]tuning.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []tuning.Entry
	for _, key := range r.order {
		if e := r.items[key]; e.Category == category {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *TuningRepository) Upsert(_ context.Context, e tuning.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := entryKey(e.Category, e.Key)
	if _, exists := r.items[key]; !exists {
		r.order = append(r.order, key)
	}
	r.items[key] = e
	return nil
}

func (r *TuningRepository) Delete(_ context.Context, category tuning.Category, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := entryKey(category, key)
	if _, exists := r.items[k]; !exists {
		return nil
	}
	delete(r.items, k)
	kept := r.order[:0]
	for _, existing := range r.order {
		if existing != k {
			kept = append(kept, existing)
		}
	}
	r.order = kept
	return nil
}
