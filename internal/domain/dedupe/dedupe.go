// Package dedupe binds client idempotency keys to the sessions they created.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 10000

// Deduper maps an Idempotency-Key to the session id it produced, so a
// retried create or import returns the same session instead of a new one.
type Deduper interface {
	// Claim atomically binds key to id unless key is already bound.
	// Returns the bound id and true when key was seen before; id and false
	// when it was newly recorded.
	Claim(ctx context.Context, key, id string) (string, bool)

	// Release unbinds key so it can be claimed again. Used when the request
	// that claimed it failed, or its session was deleted.
	Release(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key string
	id  string
}

// inMemoryDeduper keeps bindings in a map plus an insertion-ordered list.
// In bounded mode the oldest binding is evicted first; maxSize <= 0 keeps
// every binding.
type inMemoryDeduper struct {
	mu      sync.Mutex
	keys    map[string]*list.Element
	order   *list.List
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a deduper with the given options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		keys:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) Claim(_ context.Context, key, id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.keys[key]; ok {
		return el.Value.(entry).id, true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.evictOldest()
	}
	d.keys[key] = d.order.PushFront(entry{key: key, id: id})
	d.size.Add(1)
	return id, false
}

func (d *inMemoryDeduper) Release(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.keys[key]; ok {
		d.order.Remove(el)
		delete(d.keys, key)
		d.size.Add(-1)
	}
}

// evictOldest drops the earliest binding. Caller holds d.mu.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Back()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.keys, el.Value.(entry).key)
	d.size.Add(-1)
}

// Size returns the number of live bindings.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
