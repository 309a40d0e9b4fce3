// Package filter narrows the candidate stream through staged balance criteria.
//
// Stages run in order and a candidate rejected by one stage never reaches the
// next. The first three stages are hard; the position stage is a soft
// preference that only replaces the playmaker-stage list when it leaves a
// usable pool.
package filter

import (
	"github.com/okian/fairteams/internal/domain/partition"
	"github.com/okian/fairteams/internal/domain/stats"
)

// Stage names, in pipeline order.
const (
	StageCoarse    = "coarse"
	StageFine      = "fine"
	StagePlaymaker = "playmaker"
	StagePosition  = "position"
)

// Candidate is a partition paired with its stats. Seq is the zero-based
// discovery order from the generator.
type Candidate struct {
	Seq        int
	Assignment partition.Assignment
	Stats      stats.Stats
}

// Thresholds are the strict upper bounds applied by each stage.
type Thresholds struct {
	CoarseAttack    float64 `json:"coarse_attack"`
	CoarseDefense   float64 `json:"coarse_defense"`
	FineAttack      float64 `json:"fine_attack"`
	FineDefense     float64 `json:"fine_defense"`
	Playmaker       float64 `json:"playmaker"`
	PositionMin     int     `json:"position_min"`
	PositionMax     int     `json:"position_max"`
	MinPositionPool int     `json:"min_position_pool"`
}

// DefaultThresholds returns the production balance thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CoarseAttack:    0.25,
		CoarseDefense:   0.5,
		FineAttack:      0.15,
		FineDefense:     0.25,
		Playmaker:       5,
		PositionMin:     1,
		PositionMax:     3,
		MinPositionPool: 10,
	}
}

// Stage is one hard narrowing step.
type Stage struct {
	Name string
	Keep func(*stats.Stats) bool
}

// Stages returns the hard stages in pipeline order.
func (t Thresholds) Stages() []Stage {
	return []Stage{
		{Name: StageCoarse, Keep: func(s *stats.Stats) bool {
			return s.Diffs.Attack < t.CoarseAttack && s.Diffs.Defense < t.CoarseDefense
		}},
		{Name: StageFine, Keep: func(s *stats.Stats) bool {
			return s.Diffs.Attack < t.FineAttack && s.Diffs.Defense < t.FineDefense
		}},
		{Name: StagePlaymaker, Keep: func(s *stats.Stats) bool {
			return s.Diffs.Playmaker < t.Playmaker
		}},
	}
}

// Report counts candidates at every point of the pipeline.
type Report struct {
	Generated        int            `json:"generated"`
	Survivors        map[string]int `json:"survivors"`
	PositionBalanced int            `json:"position_balanced"`
}

// Outcome is the final candidate list handed to selection.
type Outcome struct {
	// Candidates is the prefix of the final list, in discovery order.
	Candidates []Candidate
	// Size is the length of the full final list.
	Size int
	// Fallback is set when no candidate survived the hard stages and the
	// first generated candidate is returned alone.
	Fallback bool
	// PositionBalanced is set when the position-balanced subset was used.
	PositionBalanced bool
	Report           Report
}

// Observer is notified for every candidate that survives a stage.
type Observer func(stage string, c *Candidate)

// Pipeline consumes candidates one at a time. It retains only the first
// retain survivors of the last hard stage and of the position subset; the
// full lists are never materialized because selection only reads a prefix.
type Pipeline struct {
	thresholds Thresholds
	stages     []Stage
	retain     int
	observer   Observer

	generated     int
	first         Candidate
	survivors     []int
	final         []Candidate
	finalCount    int
	balanced      []Candidate
	balancedCount int
}

// NewPipeline builds a pipeline for thresholds.
func NewPipeline(thresholds Thresholds, opts ...Option) *Pipeline {
	p := &Pipeline{
		thresholds: thresholds,
		stages:     thresholds.Stages(),
		retain:     defaultRetain,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.survivors = make([]int, len(p.stages))
	return p
}

// Offer pushes the next candidate from the stream through the stages.
func (p *Pipeline) Offer(c Candidate) {
	if p.generated == 0 {
		p.first = c
	}
	p.generated++

	for i, st := range p.stages {
		if !st.Keep(&c.Stats) {
			return
		}
		p.survivors[i]++
		if p.observer != nil {
			p.observer(st.Name, &c)
		}
	}

	p.finalCount++
	if len(p.final) < p.retain {
		p.final = append(p.final, c)
	}
	if c.Stats.PositionBalanced(p.thresholds.PositionMin, p.thresholds.PositionMax) {
		p.balancedCount++
		if len(p.balanced) < p.retain {
			p.balanced = append(p.balanced, c)
		}
		if p.observer != nil {
			p.observer(StagePosition, &c)
		}
	}
}

// Outcome resolves the final list. With no candidates offered at all the
// returned Candidates is empty.
func (p *Pipeline) Outcome() Outcome {
	report := Report{
		Generated:        p.generated,
		Survivors:        make(map[string]int, len(p.stages)),
		PositionBalanced: p.balancedCount,
	}
	for i, st := range p.stages {
		report.Survivors[st.Name] = p.survivors[i]
	}

	switch {
	case p.generated == 0:
		return Outcome{Report: report}
	case p.finalCount == 0:
		return Outcome{Candidates: []Candidate{p.first}, Size: 1, Fallback: true, Report: report}
	case p.balancedCount >= p.thresholds.MinPositionPool:
		return Outcome{Candidates: p.balanced, Size: p.balancedCount, PositionBalanced: true, Report: report}
	default:
		return Outcome{Candidates: p.final, Size: p.finalCount, Report: report}
	}
}
