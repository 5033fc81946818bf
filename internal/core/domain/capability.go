package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Capability is a short-lived credential granting one principal access to
// one resource. It is never mutated after creation; expiry forces a full
// reissuance through the decision path, not a renewal in place.
type Capability struct {
	SignedLocator string      `json:"signed_locator"`
	Binding       string      `json:"binding"`
	PrincipalID   PrincipalID `json:"principal_id"`
	ResourceID    ResourceID  `json:"resource_id"`
	MediaKind     MediaKind   `json:"media_kind"`
	IssuedAt      time.Time   `json:"issued_at"`
	ExpiresAt     time.Time   `json:"expires_at"`
}

func (c *Capability) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// WatermarkClaim is embedded in video playback tokens so the CDN can
// overlay a traceable identifier during playback. The display id is a
// one-way derivation of the principal, never reversible client-side.
type WatermarkClaim struct {
	PrincipalDisplayID string `json:"principal_display_id"`
	ResourceID         string `json:"resource_id"`
}

// NewWatermarkClaim derives the watermark claim for a playback token.
func NewWatermarkClaim(principal PrincipalID, resource ResourceID) WatermarkClaim {
	sum := sha256.Sum256([]byte("watermark:" + string(principal)))
	return WatermarkClaim{
		PrincipalDisplayID: hex.EncodeToString(sum[:8]),
		ResourceID:         string(resource),
	}
}
