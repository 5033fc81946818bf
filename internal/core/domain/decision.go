package domain

type DenyReason string

const (
	DenyNotAuthenticated    DenyReason = "not_authenticated"
	DenyNoEntitlement       DenyReason = "no_entitlement"
	DenyResourceUnavailable DenyReason = "resource_unavailable"
)

// Decision is the outcome of an entitlement evaluation. It is consumed
// immediately by the issuer and never persisted.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason DenyReason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// EntitlementSnapshot carries the facts needed to decide access for one
// (principal, owner) pair. It is built fresh per call by the data layer;
// the evaluator never caches it.
type EntitlementSnapshot struct {
	HasActiveOrTrialingSubscription bool
	HasFreeFollow                   bool
}
