// Package queue hands generation jobs from request handlers to workers.
//
// Enqueue never blocks: a full queue is reported to the caller so the API can
// answer with backpressure instead of stalling a request goroutine.
package queue

import (
	"context"
	"sync"

	"github.com/okian/fairteams/internal/domain/model"
	"github.com/okian/fairteams/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Metric reasons for rejected enqueues.
const (
	reasonFull     = "full"
	reasonClosed   = "closed"
	reasonCanceled = "context_canceled"
)

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job or fails with ErrQueueFull, ErrQueueClosed or the
	// context error.
	Enqueue(ctx context.Context, j *model.Job) error

	// Dequeue returns the channel workers receive jobs from. It is closed
	// once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan *model.Job

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	// Cap returns the queue capacity.
	Cap() int

	// Close stops accepting jobs. Jobs already queued can still be received.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan *model.Job
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan *model.Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j *model.Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError(reasonClosed)
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError(reasonCanceled)
		return err
	}

	select {
	case q.jobs <- j:
		metrics.UpdateQueueSize(len(q.jobs))
		return nil
	default:
		metrics.RecordQueueEnqueueError(reasonFull)
		return ErrQueueFull
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue(context.Context) <-chan *model.Job {
	return q.jobs
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(context.Context) int {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	return size
}

// Cap returns the queue capacity.
func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
