// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	jobqueue "github.com/okian/fairteams/internal/adapters/mq/queue"
	workerpool "github.com/okian/fairteams/internal/adapters/mq/worker"
	"github.com/okian/fairteams/internal/adapters/repository"
	"github.com/okian/fairteams/internal/domain/dedupe"
	"github.com/okian/fairteams/internal/domain/engine"
	"github.com/okian/fairteams/internal/domain/export"
	"github.com/okian/fairteams/internal/domain/model"
	"github.com/okian/fairteams/internal/domain/roster"
	"github.com/okian/fairteams/internal/domain/types"
	"github.com/okian/fairteams/pkg/logger"
	"github.com/okian/fairteams/pkg/metrics"
)

// Service accepts generation requests, runs them on the worker pool and keeps
// their results addressable by job id.
type Service struct {
	mu sync.RWMutex

	engine  *engine.Engine
	store   *repository.MemoryStore
	deduper dedupe.Deduper
	queue   jobqueue.Queue
	pool    *workerpool.Pool

	workerCount int
	queueSize   int
	dedupeSize  int
	jobTTL      time.Duration
	engineOpts  []engine.Option

	started bool
	baseCtx context.Context
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   256,
		dedupeSize:  10_000,
		jobTTL:      15 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the engine, store, queue and worker pool and starts the
// workers. Jobs run under a context derived from ctx.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting team generation service...")

	s.baseCtx, s.cancel = context.WithCancel(ctx)
	s.engine = engine.New(append([]engine.Option{engine.WithLogger(s.logger)}, s.engineOpts...)...)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	deduper := s.deduper
	s.store = repository.NewMemoryStore(s.baseCtx,
		repository.WithTTL(s.jobTTL),
		repository.WithEvictHook(func(j *model.Job) {
			if j.RequestID != "" {
				deduper.Release(context.Background(), j.RequestID, j.ID)
			}
		}),
	)
	s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.engine, workerpool.WithLogger(s.logger))
	s.pool.Start(s.baseCtx)

	s.started = true
	s.logger.Info(ctx, "team generation service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("jobTTL", s.jobTTL),
	)
	return nil
}

// Stop cancels running jobs, stops the workers and cancels whatever was
// still queued.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping team generation service...")

	s.cancel()
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	for j := range s.queue.Dequeue(ctx) {
		if j.Cancel() {
			metrics.RecordJobTransition(string(model.StatusCanceled))
		}
	}
	_ = s.store.Close()

	s.started = false
	s.logger.Info(ctx, "team generation service stopped")
}

// Submit validates the request and queues a job for it. When the request id
// was already used the existing job is returned with duplicate set. Roster
// size problems fail with *roster.InvalidRosterSizeError; a full queue with
// queue.ErrQueueFull.
func (s *Service) Submit(ctx context.Context, req types.GenerateRequest) (model.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.Snapshot{}, false, ErrNotStarted
	}

	if err := roster.ValidateSize(req.Players); err != nil {
		metrics.RecordInvalidRoster()
		return model.Snapshot{}, false, err
	}
	for i := range req.Players {
		if err := req.Players[i].Validate(); err != nil {
			return model.Snapshot{}, false, err
		}
	}

	j := model.NewJob(s.baseCtx, req.RequestID, req.Players)
	if err := s.store.Put(ctx, j); err != nil {
		j.Cancel()
		return model.Snapshot{}, false, fmt.Errorf("store job: %w", err)
	}
	if req.RequestID != "" {
		if snap, ok := s.claim(ctx, j); !ok {
			_ = s.store.Delete(ctx, j.ID)
			j.Cancel()
			metrics.RecordDuplicateSubmission()
			s.logger.Debug(ctx, "duplicate submission",
				logger.String("requestID", req.RequestID),
				logger.String("jobID", snap.ID),
			)
			return snap, true, nil
		}
	}

	if err := s.queue.Enqueue(ctx, j); err != nil {
		_ = s.store.Delete(ctx, j.ID)
		s.release(ctx, j)
		j.Cancel()
		return model.Snapshot{}, false, err
	}
	metrics.RecordJobTransition(string(model.StatusQueued))
	metrics.UpdateQueueSize(s.queue.Len(ctx))

	s.logger.Debug(ctx, "job queued",
		logger.String("jobID", j.ID),
		logger.Int("players", len(j.Players)),
	)
	return j.Snapshot(), false, nil
}

// claim records the job's request id. It returns false and the existing
// job's snapshot when another stored job already owns the id. j must already
// be stored so concurrent claims always find the winner.
func (s *Service) claim(ctx context.Context, j *model.Job) (model.Snapshot, bool) {
	owner, seen := s.deduper.Claim(ctx, j.RequestID, j.ID)
	if !seen {
		return model.Snapshot{}, true
	}
	if existing, err := s.store.Get(ctx, owner); err == nil {
		return existing.Snapshot(), false
	}
	// The owner expired from the store; hand the id to the new job unless
	// another submission took it meanwhile.
	s.deduper.Release(ctx, j.RequestID, owner)
	return s.claim(ctx, j)
}

func (s *Service) release(ctx context.Context, j *model.Job) {
	if j.RequestID != "" {
		s.deduper.Release(ctx, j.RequestID, j.ID)
	}
}

// Generate submits players and waits for the result. If ctx ends first the
// job is cancelled and the context error returned.
func (s *Service) Generate(ctx context.Context, players []roster.Player) (engine.Result, error) {
	snap, _, err := s.Submit(ctx, types.GenerateRequest{Players: players})
	if err != nil {
		return engine.Result{}, err
	}
	j, err := s.lookup(ctx, snap.ID)
	if err != nil {
		return engine.Result{}, err
	}

	select {
	case <-j.Done():
	case <-ctx.Done():
		if j.Cancel() && j.Status() == model.StatusCanceled {
			metrics.RecordJobTransition(string(model.StatusCanceled))
		}
		return engine.Result{}, ctx.Err()
	}

	final := j.Snapshot()
	switch final.Status {
	case model.StatusDone:
		return *final.Result, nil
	case model.StatusCanceled:
		return engine.Result{}, fmt.Errorf("job %s: %w", final.ID, context.Canceled)
	default:
		return engine.Result{}, fmt.Errorf("%w: %w", ErrJobFailed, final.Err)
	}
}

// Job returns the current state of a job.
func (s *Service) Job(ctx context.Context, id string) (model.Snapshot, error) {
	j, err := s.lookup(ctx, id)
	if err != nil {
		return model.Snapshot{}, err
	}
	return j.Snapshot(), nil
}

// Cancel cancels a queued or running job and returns its state. Finished
// jobs are returned unchanged.
func (s *Service) Cancel(ctx context.Context, id string) (model.Snapshot, error) {
	j, err := s.lookup(ctx, id)
	if err != nil {
		return model.Snapshot{}, err
	}
	if j.Cancel() {
		s.logger.Debug(ctx, "job cancelled", logger.String("jobID", id))
		if j.Status() == model.StatusCanceled {
			metrics.RecordJobTransition(string(model.StatusCanceled))
		}
	}
	return j.Snapshot(), nil
}

// Export returns the plain-text export of a finished job.
func (s *Service) Export(ctx context.Context, id string) (string, error) {
	snap, err := s.Job(ctx, id)
	if err != nil {
		return "", err
	}
	if snap.Status != model.StatusDone {
		return "", fmt.Errorf("%w: %s is %s", ErrJobNotFinished, id, snap.Status)
	}
	return export.Text(snap.Result.Partition, snap.Result.Stats), nil
}

func (s *Service) lookup(ctx context.Context, id string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	j, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return j, err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() types.StatsResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := types.StatsResponse{
		QueueCapacity: s.queueSize,
		Workers:       s.workerCount,
	}
	if !s.started {
		return out
	}
	ctx := context.Background()
	out.QueueDepth = s.queue.Len(ctx)
	out.Workers = s.pool.Size()
	out.JobsStored = s.store.Count(ctx)
	out.RequestIDs = s.deduper.Size()
	return out
}
