package ports

import (
	"context"
	"time"

	"mediagate/internal/core/domain"
)

// SignedURLProvider produces provider-signed URLs for storage-backed media
// (audio, images). The provider signature only proves the URL was not
// tampered with; principal binding is layered on top by the issuer.
type SignedURLProvider interface {
	SignGetURL(ctx context.Context, locator string, expires time.Duration) (string, error)
}

// PlaybackTokenProvider produces signed playback tokens for streaming
// video, embedding the watermark claim and an expiry.
type PlaybackTokenProvider interface {
	IssuePlaybackToken(ctx context.Context, locator string, claim domain.WatermarkClaim, expiresAt time.Time) (string, error)
}
