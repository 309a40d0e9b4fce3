// Package partition streams every three-way split of a roster into teams of
// prescribed sizes.
package partition

import (
	"context"

	"github.com/okian/fairteams/internal/domain/combin"
	"github.com/okian/fairteams/internal/domain/roster"
)

// Assignment is a compact partition: roster indices laid out team by team.
// It is a value type so candidates can be retained without heap churn.
type Assignment struct {
	Sizes roster.TeamSizes
	order [roster.MaxPlayers]uint8
}

// Team returns the roster indices of team t (0, 1 or 2) in roster order.
func (a *Assignment) Team(t int) []uint8 {
	start := 0
	for i := 0; i < t; i++ {
		start += a.Sizes[i]
	}
	return a.order[start : start+a.Sizes[t]]
}

// Key returns a stable identity for the assignment, usable as a map key.
func (a *Assignment) Key() [roster.MaxPlayers]uint8 { return a.order }

// Partition is an assignment materialized into players.
type Partition struct {
	Teams [roster.NumTeams][]roster.Player
}

// Materialize resolves the assignment against players. The returned teams
// are fresh slices; players is not modified.
func (a *Assignment) Materialize(players []roster.Player) Partition {
	var p Partition
	for t := range p.Teams {
		idx := a.Team(t)
		team := make([]roster.Player, len(idx))
		for i, j := range idx {
			team[i] = players[j]
		}
		p.Teams[t] = team
	}
	return p
}

// Count returns the number of assignments Each produces for n players.
func Count(n int, sizes roster.TeamSizes) int {
	return combin.Binomial(n, sizes[0]) * combin.Binomial(n-sizes[0], sizes[1])
}

// Each calls fn for every assignment of players into teams of sizes, in the
// deterministic order: team 1 subsets lexicographically over the roster, then
// team 2 subsets lexicographically over the remainder; team 3 takes whatever
// is left. Returning false from fn stops enumeration early.
//
// ctx is checked before every team 1 choice; a cancelled context aborts the
// walk and its error is returned. The caller guarantees sizes sum to
// len(players) and len(players) <= roster.MaxPlayers.
func Each(ctx context.Context, players []roster.Player, sizes roster.TeamSizes, fn func(Assignment) bool) error {
	n := len(players)
	rest := make([]uint8, 0, n)

	for first := range combin.Indices(n, sizes[0]) {
		if err := ctx.Err(); err != nil {
			return err
		}

		var taken [roster.MaxPlayers]bool
		for _, i := range first {
			taken[i] = true
		}
		rest = rest[:0]
		for i := 0; i < n; i++ {
			if !taken[i] {
				rest = append(rest, uint8(i))
			}
		}

		for second := range combin.Indices(len(rest), sizes[1]) {
			a := Assignment{Sizes: sizes}
			pos := 0
			for _, i := range first {
				a.order[pos] = uint8(i)
				pos++
			}
			var picked [roster.MaxPlayers]bool
			for _, j := range second {
				a.order[pos] = rest[j]
				picked[j] = true
				pos++
			}
			for j, i := range rest {
				if !picked[j] {
					a.order[pos] = i
					pos++
				}
			}
			if !fn(a) {
				return nil
			}
		}
	}
	return nil
}
