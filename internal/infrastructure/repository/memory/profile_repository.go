package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gridironlab/valuation-engine/internal/domain/profile"
)

type ProfileRepository struct {
	mu     sync.RWMutex
	items  map[string]profile.LeagueProfile
	byKey  map[string]string
	orders []string
}

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{
		items: make(map[string]profile.LeagueProfile),
		byKey: make(map[string]string),
	}
}

func (r *ProfileRepository) GetByID(_ context.Context, id string) (profile.LeagueProfile, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	return p, ok, nil
}

func (r *ProfileRepository) GetByFormatKey(_ context.Context, formatKey string) (profile.LeagueProfile, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[formatKey]
	if !ok {
		return profile.LeagueProfile{}, false, nil
	}
	return r.items[id], true, nil
}

func (r *ProfileRepository) ListAll(_ context.Context) ([]profile.LeagueProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]profile.LeagueProfile, 0, len(r.orders))
	for _, id := range r.orders {
		out = append(out, r.items[id])
	}
	return out, nil
}

func (r *ProfileRepository) Insert(_ context.Context, p profile.LeagueProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byKey[p.FormatKey]; exists {
		return fmt.Errorf("profile for format key %s already exists", p.FormatKey)
	}
	r.items[p.ID] = p
	r.byKey[p.FormatKey] = p.ID
	r.orders = append(r.orders, p.ID)
	return nil
}

func (r *ProfileRepository) SaveMultipliers(_ context.Context, id string, multipliers []profile.PositionMultiplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return fmt.Errorf("profile %s not found", id)
	}
	p.Multipliers = append([]profile.PositionMultiplier(nil), multipliers...)
	r.items[id] = p
	return nil
}
