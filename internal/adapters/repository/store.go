// Package repository keeps generation jobs addressable by id while clients
// poll for their results.
package repository

import (
	"context"

	"github.com/okian/fairteams/internal/domain/model"
)

// Store provides access to submitted jobs.
type Store interface {
	// Put stores a new job. It fails with ErrDuplicateID if the id is taken.
	Put(ctx context.Context, j *model.Job) error

	// Get returns the job with id or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Job, error)

	// Delete removes the job with id. It fails with ErrNotFound if unknown.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored jobs.
	Count(ctx context.Context) int
}
