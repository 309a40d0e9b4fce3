// Command loadtest drives a running fairteams service with random rosters
// and verifies every partition it returns.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/fairteams/internal/domain/filter"
	"github.com/okian/fairteams/internal/loadtest"
	"github.com/okian/fairteams/pkg/logger"
)

// Default configuration constants.
const (
	defaultJobs        = 200
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultPoll        = 100 * time.Millisecond
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	th := filter.DefaultThresholds()
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		jobs      = flag.Int("jobs", defaultJobs, "Number of rosters to submit")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		syncRatio = flag.Float64("sync", 0.25, "Share of rosters sent to POST /teams instead of POST /jobs")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		poll      = flag.Duration("poll", defaultPoll, "Job poll interval")
		seed      = flag.Uint64("seed", 0, "Roster generator seed (0 uses the clock)")
		logFormat = flag.String("log-format", "text", "Log format: text or json")
		verbose   = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Float64Var(&th.FineAttack, "fine-attack", th.FineAttack, "Server fine attack threshold")
	flag.Float64Var(&th.FineDefense, "fine-defense", th.FineDefense, "Server fine defense threshold")
	flag.Float64Var(&th.Playmaker, "playmaker-diff", th.Playmaker, "Server playmaker threshold")
	flag.Parse()

	if err := logger.InitWithWriter(os.Stdout, logger.Format(*logFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(2)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &loadtest.Config{
		BaseURL:      *baseURL,
		Jobs:         *jobs,
		Workers:      *workers,
		SyncRatio:    *syncRatio,
		Timeout:      *timeout,
		PollInterval: *poll,
		Seed:         *seed,
		Thresholds:   th,
	}
	if _, err := loadtest.Run(ctx, cfg, logger.Get().Named("loadtest")); err != nil {
		os.Stderr.WriteString("load test failed: " + err.Error() + "\n")
		stop()
		cancel()
		os.Exit(1)
	}
}
