// Package engine is the team generation facade: it validates the roster,
// streams every partition through stats and filtering, and selects one of the
// most balanced survivors.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/fairteams/internal/domain/filter"
	"github.com/okian/fairteams/internal/domain/partition"
	"github.com/okian/fairteams/internal/domain/roster"
	"github.com/okian/fairteams/internal/domain/selector"
	"github.com/okian/fairteams/internal/domain/stats"
	"github.com/okian/fairteams/pkg/logger"
	"github.com/okian/fairteams/pkg/metrics"
)

// Generation outcomes recorded in metrics.
const (
	outcomeBalanced = "balanced"
	outcomeFallback = "fallback"
	outcomeCanceled = "canceled"
)

// Result is the chosen partition and everything known about how it was chosen.
type Result struct {
	Partition        partition.Partition
	Stats            stats.Stats
	Sizes            roster.TeamSizes
	Report           filter.Report
	Fallback         bool
	PositionBalanced bool
	// Seq is the discovery order of the chosen partition.
	Seq int
	// Pool is the length of the final list the choice was made from.
	Pool int
}

// Engine generates balanced teams. It holds no per-call state and is safe
// for concurrent use as long as its Source is.
type Engine struct {
	thresholds filter.Thresholds
	prefix     int
	source     selector.Source
	logger     logger.Logger
}

// New creates an Engine with production thresholds, a prefix of 100 and the
// process-wide random source.
func New(opts ...Option) *Engine {
	e := &Engine{
		thresholds: filter.DefaultThresholds(),
		prefix:     selector.DefaultPrefix,
		source:     selector.Default(),
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Thresholds returns the thresholds the engine filters with.
func (e *Engine) Thresholds() filter.Thresholds { return e.thresholds }

// Generate partitions players into three balanced teams. It fails with an
// *roster.InvalidRosterSizeError when the roster is outside 12-15 players, or
// with the context error when ctx is cancelled mid-enumeration. players is
// never modified.
func (e *Engine) Generate(ctx context.Context, players []roster.Player) (Result, error) {
	sizes, err := roster.SizesFor(len(players))
	if err != nil {
		metrics.RecordInvalidRoster()
		e.logger.Debug(ctx, "roster rejected", logger.Int("players", len(players)))
		return Result{}, err
	}

	start := time.Now()
	pipe := filter.NewPipeline(e.thresholds, filter.WithRetain(e.prefix))
	seq := 0
	err = partition.Each(ctx, players, sizes, func(a partition.Assignment) bool {
		pipe.Offer(filter.Candidate{Seq: seq, Assignment: a, Stats: stats.Calculate(players, &a)})
		seq++
		return true
	})
	metrics.AddPartitionsEnumerated(seq)
	if err != nil {
		metrics.RecordGeneration(len(players), outcomeCanceled)
		return Result{}, fmt.Errorf("generate teams: %w", err)
	}

	out := pipe.Outcome()
	if len(out.Candidates) == 0 {
		return Result{}, ErrNoCandidates
	}
	chosen, _ := selector.Pick(e.source, out.Candidates, e.prefix)

	elapsed := time.Since(start)
	e.record(len(players), out, elapsed)
	e.logger.Debug(ctx, "teams generated",
		logger.Int("players", len(players)),
		logger.Int("generated", out.Report.Generated),
		logger.Int("pool", out.Size),
		logger.Int("seq", chosen.Seq),
		logger.Bool("fallback", out.Fallback),
		logger.Bool("positionBalanced", out.PositionBalanced),
		logger.Duration("elapsed", elapsed),
	)

	return Result{
		Partition:        chosen.Assignment.Materialize(players),
		Stats:            chosen.Stats,
		Sizes:            sizes,
		Report:           out.Report,
		Fallback:         out.Fallback,
		PositionBalanced: out.PositionBalanced,
		Seq:              chosen.Seq,
		Pool:             out.Size,
	}, nil
}

func (e *Engine) record(n int, out filter.Outcome, elapsed time.Duration) {
	outcome := outcomeBalanced
	if out.Fallback {
		outcome = outcomeFallback
		metrics.RecordFallback()
	}
	metrics.RecordGeneration(n, outcome)
	metrics.RecordGenerationLatency(float64(elapsed.Microseconds()) / 1000)
	for stage, c := range out.Report.Survivors {
		metrics.ObserveStageSurvivors(stage, c)
	}
	metrics.ObserveStageSurvivors(filter.StagePosition, out.Report.PositionBalanced)
}
