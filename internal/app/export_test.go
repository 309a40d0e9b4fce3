package service

import "time"

// SweepJobs runs the job store janitor once as of now.
func (s *Service) SweepJobs(now time.Time) int {
	return s.store.Sweep(now)
}
