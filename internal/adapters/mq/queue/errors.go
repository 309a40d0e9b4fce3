package queue

import "errors"

// Sentinel errors returned by Enqueue.
var (
	ErrQueueFull   = errors.New("job queue is full")
	ErrQueueClosed = errors.New("job queue is closed")
)
