package ports

import (
	"context"

	"mediagate/internal/core/domain"
)

// ResourceRepository is the read interface onto the content-management
// subsystem's data.
type ResourceRepository interface {
	GetByID(ctx context.Context, id domain.ResourceID) (*domain.Resource, error)
	GetOwnerSummary(ctx context.Context, owner domain.CreatorID) (*domain.OwnerSummary, error)
}

// EntitlementRepository builds a fresh entitlement snapshot per call.
// Snapshots must never be cached: staleness here is a correctness hazard
// for mid-playback revocation.
type EntitlementRepository interface {
	GetSnapshot(ctx context.Context, principal domain.PrincipalID, owner domain.CreatorID) (domain.EntitlementSnapshot, error)
}
