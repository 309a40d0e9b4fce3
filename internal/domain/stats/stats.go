// Package stats reduces a partition into comparable per-team aggregates.
package stats

import (
	"gonum.org/v1/gonum/floats"

	"github.com/okian/fairteams/internal/domain/partition"
	"github.com/okian/fairteams/internal/domain/roster"
)

// Diffs holds the max-minus-min spread of each aggregate across teams.
type Diffs struct {
	Attack    float64 `json:"attack"`
	Defense   float64 `json:"defense"`
	Playmaker float64 `json:"playmaker"`
}

// Stats are the per-team aggregates of one partition.
type Stats struct {
	AverageAttack  [roster.NumTeams]float64 `json:"average_attack"`
	AverageDefense [roster.NumTeams]float64 `json:"average_defense"`
	PlaymakerTotal [roster.NumTeams]float64 `json:"playmaker_total"`
	// PositionCounts is indexed [position][team].
	PositionCounts [roster.NumPositions][roster.NumTeams]int `json:"position_counts"`
	Diffs          Diffs                                     `json:"diffs"`
}

// Calculate computes the stats of an assignment over players.
func Calculate(players []roster.Player, a *partition.Assignment) Stats {
	var s Stats
	for t := 0; t < roster.NumTeams; t++ {
		idx := a.Team(t)
		var attack, defense float64
		for _, i := range idx {
			p := &players[i]
			attack += p.Attack
			defense += p.Defense
			s.PlaymakerTotal[t] += p.Playmaker
			s.PositionCounts[p.Position][t]++
		}
		n := float64(len(idx))
		s.AverageAttack[t] = attack / n
		s.AverageDefense[t] = defense / n
	}
	s.Diffs = spread(&s)
	return s
}

// Of computes the stats of a materialized partition. It agrees with
// Calculate on the assignment the partition came from.
func Of(p partition.Partition) Stats {
	var s Stats
	for t, team := range p.Teams {
		var attack, defense float64
		for i := range team {
			attack += team[i].Attack
			defense += team[i].Defense
			s.PlaymakerTotal[t] += team[i].Playmaker
			s.PositionCounts[team[i].Position][t]++
		}
		n := float64(len(team))
		s.AverageAttack[t] = attack / n
		s.AverageDefense[t] = defense / n
	}
	s.Diffs = spread(&s)
	return s
}

func spread(s *Stats) Diffs {
	return Diffs{
		Attack:    floats.Max(s.AverageAttack[:]) - floats.Min(s.AverageAttack[:]),
		Defense:   floats.Max(s.AverageDefense[:]) - floats.Min(s.AverageDefense[:]),
		Playmaker: floats.Max(s.PlaymakerTotal[:]) - floats.Min(s.PlaymakerTotal[:]),
	}
}

// PositionBalanced reports whether every team holds between lo and hi
// players (inclusive) of every position.
func (s *Stats) PositionBalanced(lo, hi int) bool {
	for pos := range s.PositionCounts {
		for _, c := range s.PositionCounts[pos] {
			if c < lo || c > hi {
				return false
			}
		}
	}
	return true
}
