package domain

import "time"

// AuditEvent is one append-only record of an issuance attempt or denial.
type AuditEvent struct {
	Principal  PrincipalID `json:"principal"`
	ResourceID ResourceID  `json:"resource_id"`
	OwnerID    CreatorID   `json:"owner_id"`
	MediaKind  MediaKind   `json:"media_kind"`
	Allowed    bool        `json:"allowed"`
	Reason     DenyReason  `json:"reason,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}
