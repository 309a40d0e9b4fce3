package service

import (
	"time"

	"github.com/okian/fairteams/internal/domain/engine"
	"github.com/okian/fairteams/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of waiting jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many request ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithJobTTL sets how long finished jobs stay retrievable. Zero keeps them.
func WithJobTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.jobTTL = ttl
		}
	}
}

// WithEngineOptions configures the team generation engine.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
