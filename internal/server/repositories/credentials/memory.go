package credentials

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/server/models"
)

// MemoryRepository keeps credentials in process memory, grouped per owner
// in insertion order. Create refuses owners that owners does not know; a nil
// owners accepts any owner id.
type MemoryRepository struct {
	mu      sync.RWMutex
	byOwner map[string][]*models.Credential
	owners  Owners
}

func NewMemoryRepository(owners Owners) *MemoryRepository {
	return &MemoryRepository{byOwner: make(map[string][]*models.Credential), owners: owners}
}

func (r *MemoryRepository) List(ctx context.Context, ownerID string) ([]*models.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.byOwner[ownerID]
	result := make([]*models.Credential, 0, len(items))
	for _, c := range items {
		cp := *c
		result = append(result, &cp)
	}
	return result, nil
}

func (r *MemoryRepository) indexOf(ownerID, id string) int {
	for i, c := range r.byOwner[ownerID] {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (r *MemoryRepository) Create(ctx context.Context, c *models.Credential) (*models.Credential, error) {
	if err := checkOwner(ctx, r.owners, c.OwnerID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(c.OwnerID, c.ID) >= 0 {
		return nil, common.ErrorAlreadyExists
	}

	ts := time.Now().UTC()
	stored := *c
	stored.CreatedAt = ts
	stored.UpdatedAt = ts
	r.byOwner[c.OwnerID] = append(r.byOwner[c.OwnerID], &stored)

	out := stored
	return &out, nil
}

func (r *MemoryRepository) Update(ctx context.Context, c *models.Credential) (*models.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(c.OwnerID, c.ID)
	if i < 0 {
		return nil, common.ErrorNotFound
	}

	stored := r.byOwner[c.OwnerID][i]
	stored.Site = c.Site
	stored.Username = c.Username
	stored.Secret = c.Secret
	stored.UpdatedAt = time.Now().UTC()

	out := *stored
	return &out, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, ownerID, id string) (*models.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(ownerID, id)
	if i < 0 {
		return nil, common.ErrorNotFound
	}

	items := r.byOwner[ownerID]
	removed := items[i]
	r.byOwner[ownerID] = append(items[:i:i], items[i+1:]...)
	return removed, nil
}
