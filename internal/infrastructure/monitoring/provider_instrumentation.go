package monitoring

import (
	"context"
	"time"

	"mediagate/internal/core/domain"
	"mediagate/internal/core/ports"
	"mediagate/pkg/tracing"
)

// InstrumentURLProvider wraps a storage signer with per-call latency
// metrics and a provider span.
func InstrumentURLProvider(next ports.SignedURLProvider, name string, metrics *PrometheusCollector) ports.SignedURLProvider {
	return &instrumentedURLProvider{next: next, name: name, metrics: metrics}
}

type instrumentedURLProvider struct {
	next    ports.SignedURLProvider
	name    string
	metrics *PrometheusCollector
}

func (p *instrumentedURLProvider) SignGetURL(ctx context.Context, locator string, expires time.Duration) (string, error) {
	ctx, span := tracing.TraceProviderCall(ctx, p.name, "sign_url")
	defer span.End()

	start := time.Now()
	url, err := p.next.SignGetURL(ctx, locator, expires)
	p.metrics.RecordProviderCall(p.name, time.Since(start))
	if err != nil {
		tracing.RecordError(ctx, err)
	}
	return url, err
}

// InstrumentTokenProvider wraps a playback-token provider the same way.
func InstrumentTokenProvider(next ports.PlaybackTokenProvider, name string, metrics *PrometheusCollector) ports.PlaybackTokenProvider {
	return &instrumentedTokenProvider{next: next, name: name, metrics: metrics}
}

type instrumentedTokenProvider struct {
	next    ports.PlaybackTokenProvider
	name    string
	metrics *PrometheusCollector
}

func (p *instrumentedTokenProvider) IssuePlaybackToken(ctx context.Context, locator string, claim domain.WatermarkClaim, expiresAt time.Time) (string, error) {
	ctx, span := tracing.TraceProviderCall(ctx, p.name, "issue_token")
	defer span.End()

	start := time.Now()
	token, err := p.next.IssuePlaybackToken(ctx, locator, claim, expiresAt)
	p.metrics.RecordProviderCall(p.name, time.Since(start))
	if err != nil {
		tracing.RecordError(ctx, err)
	}
	return token, err
}
