package repository

import (
	"time"

	"github.com/okian/fairteams/internal/domain/model"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithTTL sets how long finished jobs are kept. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *MemoryStore) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithSweepInterval sets how often the janitor looks for expired jobs.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithEvictHook registers fn to run for every job the janitor removes.
func WithEvictHook(fn func(*model.Job)) Option {
	return func(s *MemoryStore) {
		s.onEvict = fn
	}
}
