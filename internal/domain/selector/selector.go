// Package selector makes the bounded random final choice among candidates.
package selector

import (
	"math/rand/v2"
	"sync"
)

// DefaultPrefix is how many leading candidates are eligible for selection.
const DefaultPrefix = 100

// Source draws a uniform integer in [0, n). n is always > 0.
type Source interface {
	IntN(n int) int
}

// Pick returns a uniformly chosen element of the first min(prefix, len(list))
// entries together with its index. list must be non-empty; prefix < 1 is
// treated as 1.
func Pick[T any](src Source, list []T, prefix int) (T, int) {
	n := min(max(prefix, 1), len(list))
	i := src.IntN(n)
	return list[i], i
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) } //nolint:gosec // selection variety, not security

// Default returns a Source backed by the process-wide generator. It is safe
// for concurrent use.
func Default() Source { return globalSource{} }

type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// NewSeeded returns a reproducible Source that is safe for concurrent use.
func NewSeeded(seed uint64) Source {
	return &lockedSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))} //nolint:gosec // reproducible selection
}

// Sequence replays fixed draws, wrapping each modulo n. Used to pin an exact
// selection.
type Sequence struct {
	mu    sync.Mutex
	draws []int
	next  int
}

// NewSequence returns a Source that yields draws in order, cycling.
func NewSequence(draws ...int) *Sequence {
	if len(draws) == 0 {
		draws = []int{0}
	}
	return &Sequence{draws: draws}
}

// IntN returns the next draw modulo n.
func (s *Sequence) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draws[s.next%len(s.draws)]
	s.next++
	return ((d % n) + n) % n
}
