// Package dedupe tracks client request ids so a resubmitted generation
// request resolves to the job it already created.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 10000

// Deduper maps request ids to the job they created.
type Deduper interface {
	// Claim atomically records requestID for jobID unless it is already
	// known. It returns the owning job id and whether the id was seen before.
	Claim(ctx context.Context, requestID, jobID string) (string, bool)

	// Release forgets requestID if jobID still owns it, so it can be
	// submitted again. An id already claimed by another job is kept.
	Release(ctx context.Context, requestID, jobID string)

	Size() int64
}

type entry struct {
	requestID string
	jobID     string
}

// inMemoryDeduper keeps request ids in insertion order and evicts the
// oldest once maxSize is reached. maxSize <= 0 disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) Claim(_ context.Context, requestID, jobID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[requestID]; ok {
		return el.Value.(*entry).jobID, true //nolint:forcetypeassert // only *entry is stored
	}

	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.evictOldest()
	}
	d.seen[requestID] = d.order.PushBack(&entry{requestID: requestID, jobID: jobID})
	d.size.Store(int64(d.order.Len()))
	return jobID, false
}

func (d *inMemoryDeduper) Release(_ context.Context, requestID, jobID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[requestID]; ok && el.Value.(*entry).jobID == jobID { //nolint:forcetypeassert // only *entry is stored
		d.order.Remove(el)
		delete(d.seen, requestID)
		d.size.Store(int64(d.order.Len()))
	}
}

// evictOldest must be called with mu held.
func (d *inMemoryDeduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	delete(d.seen, front.Value.(*entry).requestID) //nolint:forcetypeassert // only *entry is stored
	d.order.Remove(front)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
