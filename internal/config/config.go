// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and FAIRTEAMS_ env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/fairteams/internal/domain/filter"
	"github.com/okian/fairteams/internal/domain/selector"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of generation workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets how many client request ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// JobTTLSeconds is how long finished jobs stay retrievable.
	JobTTLSeconds int `koanf:"job_ttl_seconds"`

	// RateLimitRPS and RateLimitBurst bound generation requests per second.
	// A zero RPS disables limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// SelectionPrefix is how many leading candidates the final pick draws from.
	SelectionPrefix int `koanf:"selection_prefix"`

	// RandomSeed pins the selection randomness when non-zero.
	RandomSeed uint64 `koanf:"random_seed"`

	// Balance thresholds; all bounds are strict.
	CoarseAttack    float64 `koanf:"coarse_attack"`
	CoarseDefense   float64 `koanf:"coarse_defense"`
	FineAttack      float64 `koanf:"fine_attack"`
	FineDefense     float64 `koanf:"fine_defense"`
	PlaymakerDiff   float64 `koanf:"playmaker_diff"`
	MinPositionPool int     `koanf:"min_position_pool"`
}

// New creates a Config holding the defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	th := filter.DefaultThresholds()
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		WorkerCount:     runtime.NumCPU(),
		QueueSize:       256,
		DedupeSize:      10_000,
		JobTTLSeconds:   900,
		RateLimitRPS:    20,
		RateLimitBurst:  40,
		SelectionPrefix: selector.DefaultPrefix,
		CoarseAttack:    th.CoarseAttack,
		CoarseDefense:   th.CoarseDefense,
		FineAttack:      th.FineAttack,
		FineDefense:     th.FineDefense,
		PlaymakerDiff:   th.Playmaker,
		MinPositionPool: th.MinPositionPool,
	}
}

// Thresholds returns the filter thresholds described by c.
func (c *Config) Thresholds() filter.Thresholds {
	th := filter.DefaultThresholds()
	th.CoarseAttack = c.CoarseAttack
	th.CoarseDefense = c.CoarseDefense
	th.FineAttack = c.FineAttack
	th.FineDefense = c.FineDefense
	th.Playmaker = c.PlaymakerDiff
	th.MinPositionPool = c.MinPositionPool
	return th
}

// JobTTL returns the finished-job retention as a duration.
func (c *Config) JobTTL() time.Duration {
	return time.Duration(c.JobTTLSeconds) * time.Second
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.JobTTLSeconds < 0:
		return fmt.Errorf("%w: job_ttl_seconds must not be negative", ErrInvalidConfig)
	case c.RateLimitRPS < 0 || c.RateLimitBurst < 0:
		return fmt.Errorf("%w: rate limits must not be negative", ErrInvalidConfig)
	case c.RateLimitRPS > 0 && c.RateLimitBurst < 1:
		return fmt.Errorf("%w: rate_limit_burst must be positive when limiting", ErrInvalidConfig)
	case c.SelectionPrefix < 1:
		return fmt.Errorf("%w: selection_prefix must be positive", ErrInvalidConfig)
	case c.CoarseAttack <= 0 || c.CoarseDefense <= 0 || c.FineAttack <= 0 || c.FineDefense <= 0 || c.PlaymakerDiff <= 0:
		return fmt.Errorf("%w: thresholds must be positive", ErrInvalidConfig)
	case c.MinPositionPool < 0:
		return fmt.Errorf("%w: min_position_pool must not be negative", ErrInvalidConfig)
	}
	return nil
}
