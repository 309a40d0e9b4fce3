package roster

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidRosterSize = errors.New("invalid roster size")
	ErrInvalidPosition   = errors.New("invalid position")
	ErrNegativeScore     = errors.New("negative score")
)

// InvalidRosterSizeError carries the offending count and the accepted range.
type InvalidRosterSizeError struct {
	Count int
	Min   int
	Max   int
}

func (e *InvalidRosterSizeError) Error() string {
	return fmt.Sprintf("invalid roster size: got %d players, need %d-%d", e.Count, e.Min, e.Max)
}

// Is matches ErrInvalidRosterSize.
func (e *InvalidRosterSizeError) Is(target error) bool {
	return target == ErrInvalidRosterSize
}
