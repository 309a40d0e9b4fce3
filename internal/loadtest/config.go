// Package loadtest drives a running fairteams service with random rosters and
// checks every returned partition.
package loadtest

import (
	"time"

	"github.com/okian/fairteams/internal/domain/filter"
)

// Config holds configuration for a load test run.
type Config struct {
	BaseURL      string            // Base URL of the service
	Jobs         int               // Number of rosters to submit
	Workers      int               // Number of concurrent submitters
	SyncRatio    float64           // Share of rosters sent to POST /teams instead of /jobs
	Timeout      time.Duration     // HTTP request timeout
	PollInterval time.Duration     // Delay between job polls
	Seed         uint64            // Roster generator seed; 0 picks one from the clock
	Thresholds   filter.Thresholds // Thresholds the server filters with
}

// Stats holds run statistics.
type Stats struct {
	Submitted     int
	Accepted      int
	Duplicates    int
	Rejected      int
	Completed     int
	Failed        int
	Verified      int
	Violations    int
	Fallbacks     int
	InvalidProbes int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Jobs < 1 {
		out.Jobs = 1
	}
	if out.Workers < 1 {
		out.Workers = 1
	}
	if out.Timeout <= 0 {
		out.Timeout = 30 * time.Second
	}
	if out.PollInterval <= 0 {
		out.PollInterval = 50 * time.Millisecond
	}
	if out.Thresholds == (filter.Thresholds{}) {
		out.Thresholds = filter.DefaultThresholds()
	}
	if out.Seed == 0 {
		out.Seed = uint64(time.Now().UnixNano())
	}
	return out
}
