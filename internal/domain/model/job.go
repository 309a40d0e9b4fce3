// Package model contains domain models passed between layers.
package model

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/fairteams/internal/domain/engine"
	"github.com/okian/fairteams/internal/domain/roster"
)

// Status is the lifecycle state of a Job.
type Status string

// Job statuses. Done, Failed and Canceled are terminal.
const (
	StatusQueued   Status = "queued"
	StatusRunning  Status = "running"
	StatusDone     Status = "done"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Terminal reports whether s is a final status.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed || s == StatusCanceled
}

// Job is one team generation request moving through the queue.
// Players is a private copy and is never modified after NewJob.
type Job struct {
	ID        string
	RequestID string // client supplied idempotency key, may be empty
	Players   []roster.Player

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.RWMutex
	status     Status
	result     *engine.Result
	err        error
	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time
}

// Snapshot is a consistent read-only view of a Job.
type Snapshot struct {
	ID         string
	RequestID  string
	Status     Status
	Players    []roster.Player
	Result     *engine.Result
	Err        error
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewJob creates a queued job with a fresh id. The job's context is derived
// from parent and is cancelled by Cancel or when parent ends.
func NewJob(parent context.Context, requestID string, players []roster.Player) *Job {
	ctx, cancel := context.WithCancel(parent)
	return &Job{
		ID:        uuid.NewString(),
		RequestID: requestID,
		Players:   append([]roster.Player(nil), players...),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		status:    StatusQueued,
		createdAt: time.Now(),
	}
}

// Context is cancelled when the job is cancelled.
func (j *Job) Context() context.Context { return j.ctx }

// Done is closed once the job reaches a terminal status.
func (j *Job) Done() <-chan struct{} { return j.done }

// Status returns the current status.
func (j *Job) Status() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// Start moves a queued job to running. It returns false when the job was
// cancelled before a worker picked it up.
func (j *Job) Start() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusQueued {
		return false
	}
	j.status = StatusRunning
	j.startedAt = time.Now()
	return true
}

// Finish records the outcome of a run and returns the terminal status.
// A context error while the job's context is done counts as cancellation.
func (j *Job) Finish(res engine.Result, err error) Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return j.status
	}
	switch {
	case err == nil:
		j.status = StatusDone
		j.result = &res
	case j.ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		j.status = StatusCanceled
		j.err = err
	default:
		j.status = StatusFailed
		j.err = err
	}
	j.close()
	return j.status
}

// Cancel cancels the job. A queued job becomes canceled immediately; a
// running job is signalled through its context and becomes canceled when the
// engine notices. It returns false when the job had already finished.
func (j *Job) Cancel() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return false
	}
	j.cancel()
	if j.status == StatusQueued {
		j.status = StatusCanceled
		j.err = context.Canceled
		j.close()
	}
	return true
}

// Snapshot returns a consistent copy of the job state.
func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return Snapshot{
		ID:         j.ID,
		RequestID:  j.RequestID,
		Status:     j.status,
		Players:    j.Players,
		Result:     j.result,
		Err:        j.err,
		CreatedAt:  j.createdAt,
		StartedAt:  j.startedAt,
		FinishedAt: j.finishedAt,
	}
}

// FinishedAt returns when the job reached a terminal status, or zero.
func (j *Job) FinishedAt() time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.finishedAt
}

// close must be called with mu held.
func (j *Job) close() {
	j.finishedAt = time.Now()
	j.cancel()
	close(j.done)
}
