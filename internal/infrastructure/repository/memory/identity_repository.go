package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
)

type IdentityRepository struct {
	mu     sync.RWMutex
	items  map[string]identity.PlayerIdentity
	orders []string
}

func NewIdentityRepository(players []identity.PlayerIdentity) *IdentityRepository {
	items := make(map[string]identity.PlayerIdentity, len(players))
	orders := make([]string, 0, len(players))

	for _, p := range players {
		items[p.ID] = p
		orders = append(orders, p.ID)
	}

	return &IdentityRepository{
		items:  items,
		orders: orders,
	}
}

func (r *IdentityRepository) GetByID(_ context.Context, id string) (identity.PlayerIdentity, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return identity.PlayerIdentity{}, false, nil
	}
	return clonePlayer(p), true, nil
}

func (r *IdentityRepository) GetByExternalID(_ context.Context, source identity.Source, externalID string) (identity.PlayerIdentity, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.orders {
		p := r.items[id]
		if got, ok := p.ExternalID(source); ok && got == externalID {
			return clonePlayer(p), true, nil
		}
	}
	return identity.PlayerIdentity{}, false, nil
}

func (r *IdentityRepository) ListByNormalizedName(_ context.Context, normalizedName string) ([]identity.PlayerIdentity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []identity.PlayerIdentity
	for _, id := range r.orders {
		if p := r.items[id]; p.NormalizedName == normalizedName {
			out = append(out, clonePlayer(p))
		}
	}
	return out, nil
}

func (r *IdentityRepository) ListByStatus(_ context.Context, status identity.Status) ([]identity.PlayerIdentity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []identity.PlayerIdentity
	for _, id := range r.orders {
		if p := r.items[id]; p.Status == status {
			out = append(out, clonePlayer(p))
		}
	}
	return out, nil
}

func (r *IdentityRepository) ListAll(_ context.Context) ([]identity.PlayerIdentity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]identity.PlayerIdentity, 0, len(r.orders))
	for _, id := range r.orders {
		out = append(out, clonePlayer(r.items[id]))
	}
	return out, nil
}

func (r *IdentityRepository) Upsert(_ context.Context, player identity.PlayerIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[player.ID]; !exists {
		r.orders = append(r.orders, player.ID)
	}
	r.items[player.ID] = clonePlayer(player)
	return nil
}

func (r *IdentityRepository) UpdateStatus(_ context.Context, id string, status identity.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return fmt.Errorf("player %s not found", id)
	}
	p.Status = status
	r.items[id] = p
	return nil
}

// MergeIdentities folds dropID into keepID: external ids the keeper is
// missing move over and the duplicate is retired. The memory store is
// a single critical section, mirroring the transactional store.
func (r *IdentityRepository) MergeIdentities(_ context.Context, keepID, dropID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keep, ok := r.items[keepID]
	if !ok {
		return fmt.Errorf("player %s not found", keepID)
	}
	drop, ok := r.items[dropID]
	if !ok {
		return fmt.Errorf("player %s not found", dropID)
	}

	if keep.ExternalIDs == nil {
		keep.ExternalIDs = make(map[identity.Source]string)
	}
	for source, externalID := range drop.ExternalIDs {
		if _, exists := keep.ExternalIDs[source]; !exists {
			keep.ExternalIDs[source] = externalID
		}
	}
	drop.Status = identity.StatusRetired

	r.items[keepID] = keep
	r.items[dropID] = drop
	return nil
}

func clonePlayer(p identity.PlayerIdentity) identity.PlayerIdentity {
	out := p
	if p.ExternalIDs != nil {
		out.ExternalIDs = make(map[identity.Source]string, len(p.ExternalIDs))
		for k, v := range p.ExternalIDs {
			out.ExternalIDs[k] = v
		}
	}
	if p.BirthYear != nil {
		year := *p.BirthYear
		out.BirthYear = &year
	}
	return out
}
