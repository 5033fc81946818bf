package services

import (
	"context"

	"mediagate/internal/core/domain"
	"mediagate/internal/core/ports"

	"go.uber.org/zap"
)

type entitlementService struct {
	resourceRepo    ports.ResourceRepository
	entitlementRepo ports.EntitlementRepository
	logger          *zap.SugaredLogger
}

func NewEntitlementService(
	resourceRepo ports.ResourceRepository,
	entitlementRepo ports.EntitlementRepository,
	logger *zap.SugaredLogger,
) ports.EntitlementService {
	return &entitlementService{
		resourceRepo:    resourceRepo,
		entitlementRepo: entitlementRepo,
		logger:          logger,
	}
}

// Decide evaluates access for a (principal, resource) pair against an
// already-resolved snapshot. It has no side effects and never errors for
// business reasons.
//
// Unavailability is checked before entitlement: an unpublished resource
// must not leak its existence through a paywall message.
func (s *entitlementService) Decide(principal domain.PrincipalID, resource *domain.Resource, snapshot domain.EntitlementSnapshot) domain.Decision {
	if resource == nil || !resource.Servable() {
		return domain.Deny(domain.DenyResourceUnavailable)
	}

	if resource.AccessClass == domain.AccessClassFree {
		return domain.Allow()
	}

	if principal.IsAnonymous() {
		return domain.Deny(domain.DenyNotAuthenticated)
	}

	if snapshot.HasActiveOrTrialingSubscription || snapshot.HasFreeFollow {
		return domain.Allow()
	}

	return domain.Deny(domain.DenyNoEntitlement)
}

// Check resolves the resource and a fresh entitlement snapshot, then
// delegates to Decide. The snapshot is built per call; caching it would
// let revoked subscriptions keep playing.
func (s *entitlementService) Check(ctx context.Context, principal domain.PrincipalID, resourceID domain.ResourceID) (domain.Decision, *domain.Resource, error) {
	resource, err := s.resourceRepo.GetByID(ctx, resourceID)
	if err != nil {
		return domain.Decision{}, nil, err
	}

	var snapshot domain.EntitlementSnapshot
	// The snapshot only matters for paid content viewed by an
	// authenticated principal; skip the fetch otherwise.
	if resource.AccessClass == domain.AccessClassPaid && !principal.IsAnonymous() {
		snapshot, err = s.entitlementRepo.GetSnapshot(ctx, principal, resource.OwnerID)
		if err != nil {
			return domain.Decision{}, nil, err
		}
	}

	decision := s.Decide(principal, resource, snapshot)
	if !decision.Allowed {
		s.logger.Debugw("access denied",
			"principal", principal,
			"resource_id", resource.ID,
			"owner_id", resource.OwnerID,
			"reason", decision.Reason,
		)
	}
	return decision, resource, nil
}
