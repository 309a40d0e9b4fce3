package filter_test

import (
	"context"
	"testing"

	"github.com/okian/fairteams/internal/domain/filter"
	"github.com/okian/fairteams/internal/domain/partition"
	"github.com/okian/fairteams/internal/domain/roster"
	"github.com/okian/fairteams/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func mk(seq int, attack, defense, playmaker float64, balanced bool) filter.Candidate {
	c := filter.Candidate{Seq: seq}
	c.Stats.Diffs = stats.Diffs{Attack: attack, Defense: defense, Playmaker: playmaker}
	for pos := range c.Stats.PositionCounts {
		for team := range c.Stats.PositionCounts[pos] {
			c.Stats.PositionCounts[pos][team] = 1
		}
	}
	if !balanced {
		c.Stats.PositionCounts[roster.Defense][0] = 0
		c.Stats.PositionCounts[roster.Midfield][0] = 2
	}
	return c
}

func seqs(cs []filter.Candidate) []int {
	out := make([]int, len(cs))
	for i, c := range cs {
		out[i] = c.Seq
	}
	return out
}

func TestStageThresholds(t *testing.T) {
	Convey("Given the default thresholds", t, func() {
		st := filter.DefaultThresholds().Stages()
		So(len(st), ShouldEqual, 3)
		keep := func(i int, c filter.Candidate) bool { return st[i].Keep(&c.Stats) }

		Convey("Then bounds are strict", func() {
			So(keep(0, mk(0, 0.24, 0.49, 0, true)), ShouldBeTrue)
			So(keep(0, mk(0, 0.25, 0.1, 0, true)), ShouldBeFalse)
			So(keep(0, mk(0, 0.1, 0.5, 0, true)), ShouldBeFalse)
			So(keep(1, mk(0, 0.14, 0.24, 0, true)), ShouldBeTrue)
			So(keep(1, mk(0, 0.15, 0.1, 0, true)), ShouldBeFalse)
			So(keep(1, mk(0, 0.1, 0.25, 0, true)), ShouldBeFalse)
			So(keep(2, mk(0, 0, 0, 4.99, true)), ShouldBeTrue)
			So(keep(2, mk(0, 0, 0, 5, true)), ShouldBeFalse)
		})
	})
}

func TestPipelineOutcome(t *testing.T) {
	th := filter.DefaultThresholds()

	Convey("Given no candidates at all", t, func() {
		out := filter.NewPipeline(th).Outcome()

		Convey("Then the outcome is empty", func() {
			So(out.Candidates, ShouldBeEmpty)
			So(out.Report.Generated, ShouldEqual, 0)
		})
	})

	Convey("Given candidates that all fail the coarse stage", t, func() {
		p := filter.NewPipeline(th)
		for i := 0; i < 20; i++ {
			p.Offer(mk(i, 1, 1, 0, true))
		}
		out := p.Outcome()

		Convey("Then the first generated candidate is returned alone", func() {
			So(out.Fallback, ShouldBeTrue)
			So(seqs(out.Candidates), ShouldResemble, []int{0})
			So(out.Report.Survivors[filter.StageCoarse], ShouldEqual, 0)
		})
	})

	Convey("Given candidates that pass coarse and fine but fail playmaker", t, func() {
		p := filter.NewPipeline(th)
		p.Offer(mk(0, 0.3, 0.1, 0, true))
		p.Offer(mk(1, 0.1, 0.1, 7, true))
		out := p.Outcome()

		Convey("Then fallback still uses the very first candidate", func() {
			So(out.Fallback, ShouldBeTrue)
			So(seqs(out.Candidates), ShouldResemble, []int{0})
			So(out.Report.Survivors[filter.StageFine], ShouldEqual, 1)
			So(out.Report.Survivors[filter.StagePlaymaker], ShouldEqual, 0)
		})
	})

	Convey("Given fewer than ten position-balanced survivors", t, func() {
		p := filter.NewPipeline(th)
		for i := 0; i < 30; i++ {
			p.Offer(mk(i, 0.1, 0.1, 0, i < 9))
		}
		out := p.Outcome()

		Convey("Then the playmaker-stage list is final", func() {
			So(out.PositionBalanced, ShouldBeFalse)
			So(out.Size, ShouldEqual, 30)
			So(len(out.Candidates), ShouldEqual, 30)
			So(out.Report.PositionBalanced, ShouldEqual, 9)
		})
	})

	Convey("Given exactly ten position-balanced survivors", t, func() {
		p := filter.NewPipeline(th)
		for i := 0; i < 30; i++ {
			p.Offer(mk(i, 0.1, 0.1, 0, i%3 == 0))
		}
		out := p.Outcome()

		Convey("Then the position-balanced subset is final", func() {
			So(out.PositionBalanced, ShouldBeTrue)
			So(out.Size, ShouldEqual, 10)
			So(seqs(out.Candidates), ShouldResemble, []int{0, 3, 6, 9, 12, 15, 18, 21, 24, 27})
		})
	})

	Convey("Given more survivors than the retain limit", t, func() {
		p := filter.NewPipeline(th, filter.WithRetain(100))
		for i := 0; i < 250; i++ {
			p.Offer(mk(i, 0, 0, 0, false))
		}
		out := p.Outcome()

		Convey("Then only the discovery-order prefix is kept while the size is exact", func() {
			So(out.Size, ShouldEqual, 250)
			So(len(out.Candidates), ShouldEqual, 100)
			So(out.Candidates[0].Seq, ShouldEqual, 0)
			So(out.Candidates[99].Seq, ShouldEqual, 99)
			So(out.Report.Generated, ShouldEqual, 250)
		})
	})
}

func TestPipelineMonotonicity(t *testing.T) {
	Convey("Given every partition of a varied 12-player roster", t, func() {
		ps := make([]roster.Player, 12)
		for i := range ps {
			ps[i] = roster.Player{
				Attack:    float64(5 + i%4),
				Defense:   float64(4 + (i*7)%5),
				Playmaker: float64(i % 3),
				Position:  roster.Position(i % 3),
			}
		}
		sizes, _ := roster.SizesFor(12)

		passed := map[string]map[[roster.MaxPlayers]uint8]bool{}
		observer := func(stage string, c *filter.Candidate) {
			if passed[stage] == nil {
				passed[stage] = map[[roster.MaxPlayers]uint8]bool{}
			}
			passed[stage][c.Assignment.Key()] = true
		}
		p := filter.NewPipeline(filter.DefaultThresholds(), filter.WithObserver(observer))
		seq := 0
		err := partition.Each(context.Background(), ps, sizes, func(a partition.Assignment) bool {
			p.Offer(filter.Candidate{Seq: seq, Assignment: a, Stats: stats.Calculate(ps, &a)})
			seq++
			return true
		})
		So(err, ShouldBeNil)
		out := p.Outcome()

		Convey("Then each stage's survivors are a subset of the previous stage's", func() {
			chain := []string{filter.StageCoarse, filter.StageFine, filter.StagePlaymaker, filter.StagePosition}
			for i := 1; i < len(chain); i++ {
				for key := range passed[chain[i]] {
					So(passed[chain[i-1]][key], ShouldBeTrue)
				}
				So(len(passed[chain[i]]), ShouldBeLessThanOrEqualTo, len(passed[chain[i-1]]))
			}
		})

		Convey("Then the report agrees with the observer", func() {
			So(out.Report.Generated, ShouldEqual, 495*70)
			So(out.Report.Survivors[filter.StageCoarse], ShouldEqual, len(passed[filter.StageCoarse]))
			So(out.Report.Survivors[filter.StageFine], ShouldEqual, len(passed[filter.StageFine]))
			So(out.Report.PositionBalanced, ShouldEqual, len(passed[filter.StagePosition]))
		})
	})
}
