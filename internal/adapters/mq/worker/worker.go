// Package worker runs queued generation jobs on a fixed set of goroutines so
// the CPU-bound search never runs on a request goroutine.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/fairteams/internal/domain/engine"
	"github.com/okian/fairteams/internal/domain/model"
	"github.com/okian/fairteams/internal/domain/roster"
	"github.com/okian/fairteams/pkg/logger"
	"github.com/okian/fairteams/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Generator produces teams for a roster.
type Generator interface {
	Generate(ctx context.Context, players []roster.Player) (engine.Result, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan *model.Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	generator Generator
	name      string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, generator Generator, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		generator: generator,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(j)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(j *model.Job) {
	ctx := j.Context()
	if !j.Start() {
		// Cancelled while waiting in the queue.
		w.logger.Debug(ctx, "skipping job", logger.String("jobID", j.ID), logger.String("status", string(j.Status())))
		return
	}
	metrics.RecordJobTransition(string(model.StatusRunning))
	metrics.IncWorkersBusy()
	defer metrics.DecWorkersBusy()

	start := time.Now()
	res, err := w.generator.Generate(ctx, j.Players)
	status := j.Finish(res, err)
	metrics.RecordJobTransition(string(status))

	fields := []logger.Field{
		logger.String("jobID", j.ID),
		logger.String("status", string(status)),
		logger.Duration("elapsed", time.Since(start)),
	}
	if status == model.StatusFailed {
		w.logger.Error(ctx, "job failed", append(fields, logger.Error(err))...)
		return
	}
	w.logger.Debug(ctx, "job finished", fields...)
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers; values below 1 use one
// worker per CPU.
func NewPool(workerCount int, queue Queue, generator Generator, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	probe := NewInMemoryWorker(queue, generator, opts...)
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  probe.logger.Named("pool"),
	}
	for i := range pool.workers {
		pool.workers[i] = NewInMemoryWorker(queue, generator,
			append(opts, WithName("worker-"+strconv.Itoa(i)))...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue when it supports it and waits for workers to
// finish their current job.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
