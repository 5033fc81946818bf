package batch

import (
	"context"
	"sync"
	"testing"
	"time"
)

type collector struct {
	mu      sync.Mutex
	batches [][]int
}

func (c *collector) flush(_ context.Context, items []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	batch := make([]int, len(items))
	copy(batch, items)
	c.batches = append(c.batches, batch)
}

func (c *collector) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, b := range c.batches {
		n += len(b)
	}
	return n
}

func TestBatcher_FlushOnSize(t *testing.T) {
	c := &collector{}
	b := NewBatcher(3, time.Hour, c.flush)
	defer b.Stop()

	for i := 0; i < 3; i++ {
		b.Add(i)
	}

	deadline := time.After(time.Second)
	for c.total() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected 3 items flushed, got %d", c.total())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestBatcher_StopFlushesRemaining(t *testing.T) {
	c := &collector{}
	b := NewBatcher(100, time.Hour, c.flush)

	b.Add(1)
	b.Add(2)
	b.Stop()

	if c.total() != 2 {
		t.Errorf("expected 2 items flushed on Stop, got %d", c.total())
	}
}

func TestBatcher_DropsOldestWhenFull(t *testing.T) {
	c := &collector{}
	b := NewBatcher(2, time.Hour, func(ctx context.Context, items []int) {
		// Never flush via size path; simulate a stuck consumer by
		// swallowing the flush.
		time.Sleep(50 * time.Millisecond)
		c.flush(ctx, items)
	})

	// maxPending is batchSize*4 = 8; push well past it.
	dropsSeen := uint64(0)
	for i := 0; i < 50; i++ {
		if b.Add(i) {
			dropsSeen++
		}
	}
	b.Stop()

	if b.Dropped() == 0 {
		t.Error("expected drops under backpressure")
	}
	if dropsSeen != b.Dropped() {
		t.Errorf("Add reported %d drops, counter says %d", dropsSeen, b.Dropped())
	}
	if c.total() == 0 {
		t.Error("expected some items flushed")
	}
}
