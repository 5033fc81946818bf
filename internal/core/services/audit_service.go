package services

import (
	"context"
	"time"

	"mediagate/internal/core/domain"
	"mediagate/internal/core/ports"
	"mediagate/pkg/batch"

	"go.uber.org/zap"
)

// AuditMetrics counts audit events lost to backpressure.
type AuditMetrics interface {
	RecordAuditDrop(n int)
}

type noopAuditMetrics struct{}

func (noopAuditMetrics) RecordAuditDrop(int) {}

// auditService writes one structured record per issuance attempt and per
// denial. It is a pure observer: it never blocks the access flow and a
// failing sink degrades to a warn log, never to a user-facing error.
type auditService struct {
	batcher *batch.Batcher[domain.AuditEvent]
	metrics AuditMetrics
	logger  *zap.SugaredLogger
}

func NewAuditService(logger *zap.SugaredLogger, batchSize int, flushInterval time.Duration, metrics AuditMetrics) ports.AuditSink {
	if metrics == nil {
		metrics = noopAuditMetrics{}
	}
	s := &auditService{metrics: metrics, logger: logger}
	s.batcher = batch.NewBatcher(batchSize, flushInterval, s.writeBatch)
	return s
}

func (s *auditService) Record(event domain.AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if s.batcher.Add(event) {
		s.metrics.RecordAuditDrop(1)
	}
}

func (s *auditService) Close() error {
	s.batcher.Stop()
	if dropped := s.batcher.Dropped(); dropped > 0 {
		s.logger.Warnw("audit events dropped under backpressure", "count", dropped)
	}
	return nil
}

func (s *auditService) writeBatch(_ context.Context, events []domain.AuditEvent) {
	for _, e := range events {
		s.logger.Infow("media_access_audit",
			"principal", string(e.Principal),
			"resource_id", string(e.ResourceID),
			"owner_id", string(e.OwnerID),
			"media_kind", string(e.MediaKind),
			"allowed", e.Allowed,
			"reason", string(e.Reason),
			"timestamp", e.Timestamp.Format(time.RFC3339),
		)
	}
}
