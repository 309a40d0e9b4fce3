package loadtest

import (
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/okian/fairteams/internal/domain/roster"
)

// Generator produces random rosters. It is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))} //nolint:gosec // test data
}

// Size returns a valid roster size.
func (g *Generator) Size() int {
	return roster.MinPlayers + g.rng.IntN(roster.MaxPlayers-roster.MinPlayers+1)
}

// Roster returns n players with half-point attack and defense scores in
// [1, 10], integer playmaker scores in [0, 5] and uniquely named.
func (g *Generator) Roster(n int) []roster.Player {
	ps := make([]roster.Player, n)
	for i := range ps {
		ps[i] = roster.Player{
			Name:      "p-" + uuid.NewString()[:8],
			Attack:    float64(2+g.rng.IntN(19)) / 2,
			Defense:   float64(2+g.rng.IntN(19)) / 2,
			Playmaker: float64(g.rng.IntN(6)),
			Position:  roster.Position(g.rng.IntN(roster.NumPositions)),
		}
	}
	return ps
}
