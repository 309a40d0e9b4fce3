package engine

import (
	"errors"

	"github.com/okian/fairteams/internal/domain/filter"
	"github.com/okian/fairteams/internal/domain/selector"
	"github.com/okian/fairteams/pkg/logger"
)

// ErrNoCandidates means the generator produced nothing for a valid roster.
// Valid rosters always produce candidates, so seeing it indicates a bug.
var ErrNoCandidates = errors.New("no candidate partitions")

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithThresholds overrides the balance thresholds.
func WithThresholds(t filter.Thresholds) Option {
	return func(e *Engine) {
		e.thresholds = t
	}
}

// WithSelectionPrefix sets how many leading candidates are eligible.
func WithSelectionPrefix(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.prefix = n
		}
	}
}

// WithSource injects the randomness used for the final pick.
func WithSource(src selector.Source) Option {
	return func(e *Engine) {
		if src != nil {
			e.source = src
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l.Named("engine")
		}
	}
}
