package service

import "errors"

// Sentinel errors returned by Service.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrJobNotFound    = errors.New("job not found")
	ErrJobNotFinished = errors.New("job has not finished")
	ErrJobFailed      = errors.New("job failed")
)
