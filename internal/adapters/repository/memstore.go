package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/fairteams/internal/domain/model"
	"github.com/okian/fairteams/pkg/metrics"
)

const (
	defaultTTL           = 15 * time.Minute
	defaultSweepInterval = 30 * time.Second
)

// MemoryStore is an in-memory Store. A janitor goroutine drops jobs that
// finished more than ttl ago; queued and running jobs are never dropped.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]*model.Job

	ttl           time.Duration
	sweepInterval time.Duration
	onEvict       func(*model.Job)

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs a store and starts its janitor, which runs until
// ctx ends or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:          make(map[string]*model.Job),
		ttl:           defaultTTL,
		sweepInterval: defaultSweepInterval,
		stopChan:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	metrics.UpdateJobsStored(0)
	if s.ttl > 0 {
		s.startJanitor(ctx)
	}
	return s
}

func (s *MemoryStore) startJanitor(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case now := <-ticker.C:
				s.Sweep(now)
			}
		}
	}()
}

// Sweep removes finished jobs older than the ttl as of now and returns how
// many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-s.ttl)

	var evicted []*model.Job
	s.mu.Lock()
	for id, j := range s.byID {
		fin := j.FinishedAt()
		if !fin.IsZero() && fin.Before(cutoff) {
			delete(s.byID, id)
			evicted = append(evicted, j)
		}
	}
	n := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateJobsStored(n)
	if s.onEvict != nil {
		for _, j := range evicted {
			s.onEvict(j)
		}
	}
	return len(evicted)
}

// Close stops the janitor.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Put implements Store.Put.
func (s *MemoryStore) Put(_ context.Context, j *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[j.ID]; ok {
		return ErrDuplicateID
	}
	s.byID[j.ID] = j
	metrics.UpdateJobsStored(len(s.byID))
	return nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return j, nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	metrics.UpdateJobsStored(len(s.byID))
	return nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
