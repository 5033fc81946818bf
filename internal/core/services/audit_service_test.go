package services

import (
	"testing"
	"time"

	"mediagate/internal/core/domain"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuditService_RecordsEvents(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewAuditService(zap.New(core).Sugar(), 10, 10*time.Millisecond, nil)

	sink.Record(domain.AuditEvent{
		Principal:  "u1",
		ResourceID: "post-1",
		OwnerID:    "owner1",
		MediaKind:  domain.MediaKindVideo,
		Allowed:    true,
	})
	sink.Record(domain.AuditEvent{
		Principal:  domain.AnonymousPrincipal,
		ResourceID: "post-2",
		OwnerID:    "owner1",
		MediaKind:  domain.MediaKindAudio,
		Allowed:    false,
		Reason:     domain.DenyNotAuthenticated,
	})

	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	entries := logs.FilterMessage("media_access_audit").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}

	first := entries[0].ContextMap()
	if first["principal"] != "u1" {
		t.Errorf("principal = %v, want u1", first["principal"])
	}
	if first["allowed"] != true {
		t.Errorf("allowed = %v, want true", first["allowed"])
	}
	if first["timestamp"] == "" {
		t.Error("timestamp must be stamped when absent")
	}

	second := entries[1].ContextMap()
	if second["reason"] != string(domain.DenyNotAuthenticated) {
		t.Errorf("reason = %v, want %v", second["reason"], domain.DenyNotAuthenticated)
	}
}

type droppedCounter struct{ drops int }

func (d *droppedCounter) RecordAuditDrop(n int) { d.drops += n }

// stalledCore blocks the first log write until released, pinning the
// flush goroutine so the pending queue can be overflowed predictably.
type stalledCore struct {
	zapcore.LevelEnabler
	release chan struct{}
	wrote   chan struct{}
}

func (c *stalledCore) With([]zapcore.Field) zapcore.Core { return c }

func (c *stalledCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *stalledCore) Write(zapcore.Entry, []zapcore.Field) error {
	select {
	case c.wrote <- struct{}{}:
	default:
	}
	<-c.release
	return nil
}

func (c *stalledCore) Sync() error { return nil }

func TestAuditService_CountsDropsInMetrics(t *testing.T) {
	core := &stalledCore{
		LevelEnabler: zap.InfoLevel,
		release:      make(chan struct{}),
		wrote:        make(chan struct{}, 1),
	}
	metrics := &droppedCounter{}
	sink := NewAuditService(zap.New(core).Sugar(), 2, time.Hour, metrics)

	// Fill one batch; the flush goroutine drains it and stalls in the
	// sink write, so nothing else drains while we overflow the queue.
	sink.Record(domain.AuditEvent{Principal: "u1", ResourceID: "post-1"})
	sink.Record(domain.AuditEvent{Principal: "u1", ResourceID: "post-1"})
	<-core.wrote

	// The pending queue holds batchSize*4 events before dropping.
	for i := 0; i < 8; i++ {
		sink.Record(domain.AuditEvent{Principal: "u1", ResourceID: "post-1"})
	}
	if metrics.drops != 0 {
		t.Fatalf("no drops expected while the queue has room, got %d", metrics.drops)
	}

	sink.Record(domain.AuditEvent{Principal: "u1", ResourceID: "post-1"})
	if metrics.drops != 1 {
		t.Errorf("overflowing record must be counted as a drop, got %d", metrics.drops)
	}

	close(core.release)
	sink.Close()
}

func TestAuditService_NeverBlocks(t *testing.T) {
	core, _ := observer.New(zap.InfoLevel)
	sink := NewAuditService(zap.New(core).Sugar(), 2, time.Hour, nil)
	defer sink.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			sink.Record(domain.AuditEvent{Principal: "u1", ResourceID: "post-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record must never block the access flow")
	}
}
