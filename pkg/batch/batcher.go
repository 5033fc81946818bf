package batch

import (
	"context"
	"sync"
	"time"
)

// Flusher processes one accumulated batch.
type Flusher[T any] func(ctx context.Context, items []T)

// Batcher accumulates items and flushes them when either the batch size
// or the flush interval is reached. Add never blocks: when the pending
// buffer is full the oldest item is dropped, since producers (the access
// flow) must not stall on a slow consumer.
type Batcher[T any] struct {
	batchSize     int
	maxPending    int
	batchInterval time.Duration
	flush         Flusher[T]

	mu        sync.Mutex
	pending   []T
	dropped   uint64
	flushChan chan struct{}
	stopChan  chan struct{}
	done      chan struct{}
}

// NewBatcher creates a batcher and starts its flush loop.
func NewBatcher[T any](batchSize int, batchInterval time.Duration, flush Flusher[T]) *Batcher[T] {
	b := &Batcher[T]{
		batchSize:     batchSize,
		maxPending:    batchSize * 4,
		batchInterval: batchInterval,
		flush:         flush,
		pending:       make([]T, 0, batchSize),
		flushChan:     make(chan struct{}, 1),
		stopChan:      make(chan struct{}),
		done:          make(chan struct{}),
	}

	go b.run()

	return b
}

// Add queues an item for the next flush. It reports whether a pending
// item had to be discarded to make room.
func (b *Batcher[T]) Add(item T) bool {
	b.mu.Lock()
	droppedOne := len(b.pending) >= b.maxPending
	if droppedOne {
		// Drop oldest; the access flow must never wait on audit I/O.
		b.pending = b.pending[1:]
		b.dropped++
	}
	b.pending = append(b.pending, item)
	shouldFlush := len(b.pending) >= b.batchSize
	b.mu.Unlock()

	if shouldFlush {
		select {
		case b.flushChan <- struct{}{}:
		default:
		}
	}
	return droppedOne
}

// Dropped reports how many items were discarded due to backpressure.
func (b *Batcher[T]) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Flush immediately processes all pending items.
func (b *Batcher[T]) Flush(ctx context.Context) {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	items := make([]T, len(b.pending))
	copy(items, b.pending)
	b.pending = b.pending[:0]
	b.mu.Unlock()

	b.flush(ctx, items)
}

// Stop flushes remaining items and stops the flush loop.
func (b *Batcher[T]) Stop() {
	close(b.stopChan)
	<-b.done
}

func (b *Batcher[T]) run() {
	defer close(b.done)

	ticker := time.NewTicker(b.batchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.Flush(context.Background())
		case <-b.flushChan:
			b.Flush(context.Background())
		case <-b.stopChan:
			b.Flush(context.Background())
			return
		}
	}
}
