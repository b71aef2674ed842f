// Package queue carries session snapshots from the service to the autosave
// workers. Enqueue never blocks; a full queue is reported to the caller,
// which is expected to save synchronously instead.
package queue

import (
	"context"
	"sync"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/model"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Snapshot is the payload flowing through the queue.
type Snapshot = model.Snapshot

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a snapshot. Returns ErrQueueFull or ErrQueueClosed when
	// the snapshot was not accepted.
	Enqueue(ctx context.Context, s Snapshot) error

	// Dequeue returns the channel workers read from. It is closed by Close
	// once drained.
	Dequeue(ctx context.Context) <-chan Snapshot

	Len(ctx context.Context) int
	Cap() int

	// Close stops new snapshots; queued ones remain readable.
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	snapshots chan Snapshot
	capacity  int
	mu        sync.RWMutex
	closed    bool
}

// NewInMemoryQueue creates a queue with the given options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.snapshots = make(chan Snapshot, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, s Snapshot) error { //nolint:gocritic // hugeParam: snapshots travel by value
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		return err
	}

	select {
	case q.snapshots <- s:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.snapshots))
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrQueueFull
	}
}

// Dequeue returns the shared channel; every worker ranges over the same one.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Snapshot {
	return q.snapshots
}

func (q *InMemoryQueue) Len(_ context.Context) int {
	n := len(q.snapshots)
	metrics.UpdateQueueSize(n)
	return n
}

func (q *InMemoryQueue) Cap() int { return q.capacity }

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.snapshots)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
