package loadtest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/fairteams/internal/domain/roster"
	"github.com/okian/fairteams/internal/domain/types"
	"github.com/okian/fairteams/pkg/logger"
)

// Sentinel errors returned by Run.
var (
	ErrUnhealthy    = errors.New("service health check failed")
	ErrProbeFailed  = errors.New("invalid roster probe was not rejected")
	ErrVerification = errors.New("results failed verification")
)

const percentageMultiplier = 100

type task struct {
	requestID string
	players   []roster.Player
	sync      bool
}

type counters struct {
	submitted, accepted, duplicates, rejected atomic.Int64
	completed, failed, verified, violations   atomic.Int64
	fallbacks                                 atomic.Int64
}

// Run checks health, probes roster-size validation, submits cfg.Jobs random
// rosters concurrently, resubmits one request id to check idempotency and
// verifies every result. It fails when any result breaks an invariant.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (Stats, error) {
	c := cfg.withDefaults()
	stats := Stats{StartTime: time.Now()}
	client := NewClient(c.BaseURL, c.Timeout, log)

	log.Info(ctx, "starting fairteams load test",
		logger.String("baseURL", c.BaseURL),
		logger.Int("jobs", c.Jobs),
		logger.Int("workers", c.Workers),
		logger.Float64("syncRatio", c.SyncRatio),
		logger.Any("seed", c.Seed),
	)

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}

	probes, err := probeInvalidSizes(ctx, client)
	stats.InvalidProbes = probes
	if err != nil {
		return stats, err
	}

	tasks := makeTasks(&c)
	var cnt counters
	var wg sync.WaitGroup
	ch := make(chan task, c.Workers*2)
	for range c.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range ch {
				runTask(ctx, client, &c, t, &cnt, log)
			}
		}()
	}
dispatch:
	for _, t := range tasks {
		select {
		case <-ctx.Done():
			break dispatch
		case ch <- t:
		}
	}
	close(ch)
	wg.Wait()

	if err := checkIdempotency(ctx, client, &c, tasks, &cnt); err != nil {
		log.Warn(ctx, "idempotency check failed", logger.Error(err))
		cnt.violations.Add(1)
	}

	stats.Submitted = int(cnt.submitted.Load())
	stats.Accepted = int(cnt.accepted.Load())
	stats.Duplicates = int(cnt.duplicates.Load())
	stats.Rejected = int(cnt.rejected.Load())
	stats.Completed = int(cnt.completed.Load())
	stats.Failed = int(cnt.failed.Load())
	stats.Verified = int(cnt.verified.Load())
	stats.Violations = int(cnt.violations.Load())
	stats.Fallbacks = int(cnt.fallbacks.Load())
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, &stats)

	if stats.Violations > 0 {
		return stats, fmt.Errorf("%w: %d violations", ErrVerification, stats.Violations)
	}
	return stats, ctx.Err()
}

func makeTasks(c *Config) []task {
	gen := NewGenerator(c.Seed)
	tasks := make([]task, c.Jobs)
	syncEvery := 0
	if c.SyncRatio > 0 {
		syncEvery = max(1, int(1/c.SyncRatio))
	}
	for i := range tasks {
		tasks[i] = task{
			requestID: uuid.NewString(),
			players:   gen.Roster(gen.Size()),
			sync:      syncEvery > 0 && i%syncEvery == 0,
		}
	}
	return tasks
}

// probeInvalidSizes sends 11 and 16 players and expects 422 with the bounds.
func probeInvalidSizes(ctx context.Context, client *Client) (int, error) {
	gen := NewGenerator(1)
	probes := 0
	for _, n := range []int{roster.MinPlayers - 1, roster.MaxPlayers + 1} {
		_, err := client.Generate(ctx, gen.Roster(n))
		var se *StatusError
		if !errors.As(err, &se) || se.Code != http.StatusUnprocessableEntity ||
			se.Body.Count == nil || *se.Body.Count != n ||
			se.Body.Min == nil || *se.Body.Min != roster.MinPlayers ||
			se.Body.Max == nil || *se.Body.Max != roster.MaxPlayers {
			return probes, fmt.Errorf("%w: %d players: %v", ErrProbeFailed, n, err)
		}
		probes++
	}
	return probes, nil
}

func runTask(ctx context.Context, client *Client, c *Config, t task, cnt *counters, log logger.Logger) {
	cnt.submitted.Add(1)
	var res types.TeamsResponse
	if t.sync {
		r, err := client.Generate(ctx, t.players)
		if err != nil {
			countRejection(err, cnt)
			log.Debug(ctx, "generate rejected", logger.Error(err))
			return
		}
		cnt.accepted.Add(1)
		cnt.completed.Add(1)
		res = r
	} else {
		job, err := client.Submit(ctx, types.GenerateRequest{RequestID: t.requestID, Players: t.players})
		if err != nil {
			countRejection(err, cnt)
			log.Debug(ctx, "submit rejected", logger.Error(err))
			return
		}
		cnt.accepted.Add(1)
		if job.Duplicate {
			cnt.duplicates.Add(1)
		}
		done, err := client.Wait(ctx, job.ID, c.PollInterval)
		if err != nil || done.Status != "done" || done.Result == nil {
			cnt.failed.Add(1)
			log.Warn(ctx, "job did not finish", logger.String("jobID", job.ID), logger.String("status", done.Status), logger.Error(err))
			return
		}
		cnt.completed.Add(1)
		res = *done.Result
	}

	if res.Fallback {
		cnt.fallbacks.Add(1)
	}
	if err := Verify(c.Thresholds, t.players, &res); err != nil {
		cnt.violations.Add(1)
		log.Error(ctx, "verification failed", logger.Int("players", len(t.players)), logger.Error(err))
		return
	}
	cnt.verified.Add(1)
}

// countRejection counts 429 answers as backpressure and everything else as
// a failure.
func countRejection(err error, cnt *counters) {
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusTooManyRequests {
		cnt.rejected.Add(1)
		return
	}
	cnt.failed.Add(1)
}

// checkIdempotency resubmits the first asynchronous task and expects the
// original job back.
func checkIdempotency(ctx context.Context, client *Client, c *Config, tasks []task, cnt *counters) error {
	for _, t := range tasks {
		if t.sync {
			continue
		}
		first, err := client.Submit(ctx, types.GenerateRequest{RequestID: t.requestID, Players: t.players})
		if err != nil {
			return err
		}
		again, err := client.Submit(ctx, types.GenerateRequest{RequestID: t.requestID, Players: t.players})
		if err != nil {
			return err
		}
		if !again.Duplicate || again.ID != first.ID {
			return fmt.Errorf("%w: request id %s produced jobs %s and %s", ErrVerification, t.requestID, first.ID, again.ID)
		}
		cnt.duplicates.Add(1)
		_, err = client.Wait(ctx, first.ID, c.PollInterval)
		return err
	}
	return nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate, perSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Verified) / float64(stats.Submitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Completed) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("rejected", stats.Rejected),
		logger.Int("completed", stats.Completed),
		logger.Int("failed", stats.Failed),
		logger.Int("verified", stats.Verified),
		logger.Int("violations", stats.Violations),
		logger.Int("fallbacks", stats.Fallbacks),
		logger.Int("invalidProbes", stats.InvalidProbes),
		logger.Float64("successRate", successRate),
		logger.Float64("completedPerSecond", perSecond),
		logger.Duration("duration", stats.Duration),
	)
}
