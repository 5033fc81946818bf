package memory

import (
	"context"
	"sync"

	"mediagate/internal/core/domain"
	"mediagate/internal/core/ports"
)

type subscriptionKey struct {
	principal domain.PrincipalID
	owner     domain.CreatorID
}

type MemoryEntitlementRepository struct {
	mu            sync.RWMutex
	subscriptions map[subscriptionKey]bool
	follows       map[subscriptionKey]bool
}

func NewMemoryEntitlementRepository() *MemoryEntitlementRepository {
	return &MemoryEntitlementRepository{
		subscriptions: make(map[subscriptionKey]bool),
		follows:       make(map[subscriptionKey]bool),
	}
}

var _ ports.EntitlementRepository = (*MemoryEntitlementRepository)(nil)

// GetSnapshot builds a fresh snapshot per call. Nothing is cached here:
// a revocation must be visible on the very next revalidation tick.
func (r *MemoryEntitlementRepository) GetSnapshot(_ context.Context, principal domain.PrincipalID, owner domain.CreatorID) (domain.EntitlementSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k := subscriptionKey{principal: principal, owner: owner}
	return domain.EntitlementSnapshot{
		HasActiveOrTrialingSubscription: r.subscriptions[k],
		HasFreeFollow:                   r.follows[k],
	}, nil
}

// GrantSubscription marks an active-or-trialing subscription.
func (r *MemoryEntitlementRepository) GrantSubscription(principal domain.PrincipalID, owner domain.CreatorID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscriptions[subscriptionKey{principal: principal, owner: owner}] = true
}

// RevokeSubscription removes a subscription, effective immediately for
// the next snapshot.
func (r *MemoryEntitlementRepository) RevokeSubscription(principal domain.PrincipalID, owner domain.CreatorID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subscriptions, subscriptionKey{principal: principal, owner: owner})
}

// SetFollow records or clears a free-follow relationship.
func (r *MemoryEntitlementRepository) SetFollow(principal domain.PrincipalID, owner domain.CreatorID, following bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := subscriptionKey{principal: principal, owner: owner}
	if following {
		r.follows[k] = true
	} else {
		delete(r.follows, k)
	}
}
