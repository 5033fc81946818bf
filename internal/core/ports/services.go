package ports

import (
	"context"
	"time"

	"mediagate/internal/core/domain"
)

// EntitlementService decides whether a principal may access a resource.
// Decide is a pure function of its inputs; fetching the snapshot is the
// caller's concern.
type EntitlementService interface {
	Decide(principal domain.PrincipalID, resource *domain.Resource, snapshot domain.EntitlementSnapshot) domain.Decision
	Check(ctx context.Context, principal domain.PrincipalID, resourceID domain.ResourceID) (domain.Decision, *domain.Resource, error)
}

// CapabilityService mints and verifies short-lived, principal-bound,
// resource-bound media credentials. Issue must only be called after an
// Allow decision.
type CapabilityService interface {
	Issue(ctx context.Context, principal domain.PrincipalID, resource *domain.Resource, ttl time.Duration) (*domain.Capability, error)
	VerifyBinding(token string, principal domain.PrincipalID, resourceID domain.ResourceID) bool
}

// AuditSink records issuance attempts and denials. Implementations must
// never block the access flow or surface failures to the caller.
type AuditSink interface {
	Record(event domain.AuditEvent)
	Close() error
}
