// Package worker persists queued session snapshots in the background.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/adapters/mq/queue"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/model"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/pkg/logger"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/pkg/metrics"
)

const (
	defaultWorkerCount  = 2
	poolShutdownTimeout = 30 * time.Second
)

// Saver writes a session unless a newer revision is already stored.
type Saver interface {
	SaveIfNewer(ctx context.Context, s *model.Session) (bool, error)
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, s *model.Session) (bool, error)

func (f SaverFunc) SaveIfNewer(ctx context.Context, s *model.Session) (bool, error) { return f(ctx, s) }

// Queue defines how workers receive snapshots.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Snapshot
}

// Stats counts the outcome of every processed snapshot.
type Stats struct {
	Saved  int64
	Stale  int64
	Failed int64
}

type counters struct {
	saved, stale, failed atomic.Int64
}

func (c *counters) stats() Stats {
	return Stats{Saved: c.saved.Load(), Stale: c.stale.Load(), Failed: c.failed.Load()}
}

// InMemoryWorker drains the queue into a Saver until the queue closes or
// its context is cancelled.
type InMemoryWorker struct {
	queue    Queue
	saver    Saver
	logger   logger.Logger
	counters *counters
	done     chan struct{}
}

// NewInMemoryWorker creates a standalone worker.
func NewInMemoryWorker(q Queue, saver Saver, opts ...Option) *InMemoryWorker {
	c := newConfig(opts)
	return newWorker(q, saver, c.logger.Named(c.name), &counters{})
}

func newWorker(q Queue, saver Saver, l logger.Logger, c *counters) *InMemoryWorker {
	return &InMemoryWorker{queue: q, saver: saver, logger: l, counters: c, done: make(chan struct{})}
}

// Run processes snapshots until the queue is closed and drained, or ctx ends.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)
	ch := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			if err := w.process(ctx, snap); err != nil {
				w.logger.Error(ctx, "autosave failed",
					logger.String("session_id", snap.SessionID),
					logger.Int64("revision", snap.Revision),
					logger.Error(err))
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Stats returns the worker's counters. Pool workers share one set.
func (w *InMemoryWorker) Stats() Stats { return w.counters.stats() }

func (w *InMemoryWorker) process(ctx context.Context, snap queue.Snapshot) error { //nolint:gocritic // hugeParam: snapshots travel by value
	start := time.Now()
	saved, err := w.saver.SaveIfNewer(ctx, snap.Session)
	if err != nil {
		w.counters.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "save_failed")
		return fmt.Errorf("save snapshot %s@%d: %w", snap.SessionID, snap.Revision, err)
	}
	if !saved {
		w.counters.stale.Add(1)
		metrics.RecordWorkerStale()
		w.logger.Debug(ctx, "stale snapshot dropped",
			logger.String("session_id", snap.SessionID),
			logger.Int64("revision", snap.Revision))
		return nil
	}
	w.counters.saved.Add(1)
	metrics.RecordWorkerSave(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}

// Pool runs several workers over one queue.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	counters *counters
	logger   logger.Logger
	wg       sync.WaitGroup
}

// NewPool creates a pool. workerCount < 1 selects the default.
func NewPool(workerCount int, q Queue, saver Saver, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	c := newConfig(opts)
	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		counters: &counters{},
		logger:   c.logger.Named(c.name + "-pool"),
	}
	for i := range p.workers {
		p.workers[i] = newWorker(q, saver, c.logger.Named(c.name+"-"+strconv.Itoa(i)), p.counters)
	}
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
	metrics.UpdateWorkerCount(len(p.workers))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Stats aggregates the counters of all workers.
func (p *Pool) Stats() Stats { return p.counters.stats() }

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		metrics.UpdateWorkerCount(0)
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "worker pool shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
