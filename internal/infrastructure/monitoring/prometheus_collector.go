package monitoring

import (
	"time"

	"mediagate/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Counters
	decisionsTotal  *prometheus.CounterVec
	issuancesTotal  *prometheus.CounterVec
	verifyTotal     *prometheus.CounterVec
	auditDropsTotal prometheus.Counter

	// Histograms
	decisionDuration prometheus.Histogram
	providerDuration *prometheus.HistogramVec

	// Gauges
	notifySubscribers prometheus.Gauge
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		decisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mediagate_decisions_total",
			Help: "Total number of entitlement decisions by outcome",
		}, []string{"outcome", "reason"}),

		issuancesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mediagate_capabilities_issued_total",
			Help: "Total number of capabilities issued by media kind",
		}, []string{"media_kind"}),

		verifyTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mediagate_binding_verifications_total",
			Help: "Total number of binding token verifications by result",
		}, []string{"result"}),

		auditDropsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mediagate_audit_events_dropped_total",
			Help: "Total number of audit events dropped under backpressure",
		}),

		decisionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mediagate_decision_duration_seconds",
			Help:    "Duration of entitlement decisions including snapshot fetch",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),

		providerDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mediagate_provider_call_duration_seconds",
			Help:    "Duration of storage and CDN provider calls",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"provider"}),

		notifySubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mediagate_notify_subscribers",
			Help: "Number of connected revocation push subscribers",
		}),
	}
}

func (p *PrometheusCollector) RecordDecision(d domain.Decision, duration time.Duration) {
	outcome := "deny"
	if d.Allowed {
		outcome = "allow"
	}
	p.decisionsTotal.WithLabelValues(outcome, string(d.Reason)).Inc()
	p.decisionDuration.Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordIssuance(kind domain.MediaKind) {
	p.issuancesTotal.WithLabelValues(string(kind)).Inc()
}

func (p *PrometheusCollector) RecordVerification(ok bool) {
	result := "invalid"
	if ok {
		result = "valid"
	}
	p.verifyTotal.WithLabelValues(result).Inc()
}

func (p *PrometheusCollector) RecordAuditDrop(n int) {
	p.auditDropsTotal.Add(float64(n))
}

func (p *PrometheusCollector) RecordProviderCall(provider string, duration time.Duration) {
	p.providerDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (p *PrometheusCollector) SubscriberConnected() {
	p.notifySubscribers.Inc()
}

func (p *PrometheusCollector) SubscriberDisconnected() {
	p.notifySubscribers.Dec()
}
