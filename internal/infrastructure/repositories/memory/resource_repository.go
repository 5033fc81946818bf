package memory

import (
	"context"
	"sync"

	"mediagate/internal/core/domain"
	"mediagate/internal/core/ports"
)

type MemoryResourceRepository struct {
	mu        sync.RWMutex
	resources map[domain.ResourceID]*domain.Resource
	owners    map[domain.CreatorID]*domain.OwnerSummary
}

func NewMemoryResourceRepository() *MemoryResourceRepository {
	return &MemoryResourceRepository{
		resources: make(map[domain.ResourceID]*domain.Resource),
		owners:    make(map[domain.CreatorID]*domain.OwnerSummary),
	}
}

var _ ports.ResourceRepository = (*MemoryResourceRepository)(nil)

func (r *MemoryResourceRepository) GetByID(_ context.Context, id domain.ResourceID) (*domain.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resource, ok := r.resources[id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	copied := *resource
	return &copied, nil
}

func (r *MemoryResourceRepository) GetOwnerSummary(_ context.Context, owner domain.CreatorID) (*domain.OwnerSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary, ok := r.owners[owner]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	copied := *summary
	return &copied, nil
}

// AddResource registers a resource, for tests and local development.
func (r *MemoryResourceRepository) AddResource(resource *domain.Resource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *resource
	r.resources[resource.ID] = &copied
}

// AddOwner registers a creator summary.
func (r *MemoryResourceRepository) AddOwner(summary *domain.OwnerSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *summary
	r.owners[summary.ID] = &copied
}
