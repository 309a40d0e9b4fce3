package loadtest

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/fairteams/internal/domain/export"
	"github.com/okian/fairteams/internal/domain/filter"
	"github.com/okian/fairteams/internal/domain/roster"
	"github.com/okian/fairteams/internal/domain/types"
	"gonum.org/v1/gonum/floats"
)

// ErrViolation is wrapped by every failed check.
var ErrViolation = errors.New("invariant violation")

const tolerance = 1e-9

// Verify checks a returned partition against the roster that produced it:
// team sizes, exact coverage, recomputed aggregates and, unless the result
// is a fallback, the balance thresholds.
func Verify(th filter.Thresholds, players []roster.Player, res *types.TeamsResponse) error {
	sizes, err := roster.SizesFor(len(players))
	if err != nil {
		return err
	}
	if res.Sizes != sizes {
		return fmt.Errorf("%w: sizes %v, want %v", ErrViolation, res.Sizes, sizes)
	}

	want := make(map[roster.Player]int, len(players))
	for _, p := range players {
		want[p]++
	}

	var attack, defense, playmaker [roster.NumTeams]float64
	for t, team := range res.Teams {
		if len(team.Players) != sizes[t] {
			return fmt.Errorf("%w: team %d has %d players, want %d", ErrViolation, t+1, len(team.Players), sizes[t])
		}
		counts := make(map[string]int, roster.NumPositions)
		for _, v := range team.Players {
			p := roster.Player{Name: v.Name, Attack: v.Attack, Defense: v.Defense, Playmaker: v.Playmaker, Position: v.Position}
			if want[p] == 0 {
				return fmt.Errorf("%w: %q is not in the roster or appears twice", ErrViolation, v.Name)
			}
			want[p]--
			if v.Star != export.Starred(p) {
				return fmt.Errorf("%w: %q star flag", ErrViolation, v.Name)
			}
			attack[t] += v.Attack
			defense[t] += v.Defense
			playmaker[t] += v.Playmaker
			counts[v.Position.String()]++
		}
		attack[t] /= float64(len(team.Players))
		defense[t] /= float64(len(team.Players))

		if !near(team.AverageAttack, attack[t]) || !near(team.AverageDefense, defense[t]) || !near(team.PlaymakerTotal, playmaker[t]) {
			return fmt.Errorf("%w: team %d aggregates", ErrViolation, t+1)
		}
		for pos, n := range counts {
			if team.Positions[pos] != n {
				return fmt.Errorf("%w: team %d has %d %s, reported %d", ErrViolation, t+1, n, pos, team.Positions[pos])
			}
		}
		if res.PositionBalanced {
			for pos := range roster.NumPositions {
				n := counts[roster.Position(pos).String()]
				if n < th.PositionMin || n > th.PositionMax {
					return fmt.Errorf("%w: team %d has %d %s outside the balanced range", ErrViolation, t+1, n, roster.Position(pos))
				}
			}
		}
	}
	for p, n := range want {
		if n != 0 {
			return fmt.Errorf("%w: %q is missing", ErrViolation, p.Name)
		}
	}

	diffs := [3]float64{spread(attack[:]), spread(defense[:]), spread(playmaker[:])}
	if !near(res.Diffs.Attack, diffs[0]) || !near(res.Diffs.Defense, diffs[1]) || !near(res.Diffs.Playmaker, diffs[2]) {
		return fmt.Errorf("%w: diffs %+v, recomputed %v", ErrViolation, res.Diffs, diffs)
	}
	if res.Fallback {
		return nil
	}
	if diffs[0] >= th.FineAttack || diffs[1] >= th.FineDefense || diffs[2] >= th.Playmaker {
		return fmt.Errorf("%w: balanced result exceeds thresholds: %v", ErrViolation, diffs)
	}
	return nil
}

func spread(v []float64) float64 { return floats.Max(v) - floats.Min(v) }

func near(a, b float64) bool { return math.Abs(a-b) <= tolerance }
