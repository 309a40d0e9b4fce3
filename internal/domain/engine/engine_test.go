package engine_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/okian/fairteams/internal/domain/engine"
	"github.com/okian/fairteams/internal/domain/partition"
	"github.com/okian/fairteams/internal/domain/roster"
	"github.com/okian/fairteams/internal/domain/selector"
	"github.com/okian/fairteams/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

// varied builds a roster whose scores spread enough to exercise every stage.
func varied(n int) []roster.Player {
	ps := make([]roster.Player, n)
	for i := range ps {
		ps[i] = roster.Player{
			Name:      fmt.Sprintf("player-%02d", i),
			Attack:    float64(4 + (i*5)%6),
			Defense:   float64(3 + (i*7)%6),
			Playmaker: float64(i % 4),
			Position:  roster.Position(i % 3),
		}
	}
	return ps
}

func uniform(n int, pos func(i int) roster.Position) []roster.Player {
	ps := make([]roster.Player, n)
	for i := range ps {
		ps[i] = roster.Player{Name: fmt.Sprintf("u%02d", i), Attack: 10, Defense: 10, Position: pos(i)}
	}
	return ps
}

func assertCovers(res engine.Result, ps []roster.Player) {
	sizes, err := roster.SizesFor(len(ps))
	So(err, ShouldBeNil)
	So(res.Sizes, ShouldResemble, sizes)
	seen := map[string]int{}
	for t, team := range res.Partition.Teams {
		So(len(team), ShouldEqual, sizes[t])
		for _, p := range team {
			seen[p.Name]++
		}
	}
	So(len(seen), ShouldEqual, len(ps))
	for _, p := range ps {
		So(seen[p.Name], ShouldEqual, 1)
	}
}

func TestGenerateValidation(t *testing.T) {
	Convey("Given rosters outside 12-15 players", t, func() {
		e := engine.New()

		for _, n := range []int{0, 11, 16} {
			_, err := e.Generate(context.Background(), varied(n))

			Convey(fmt.Sprintf("Then %d players fail with InvalidRosterSize", n), func() {
				So(errors.Is(err, roster.ErrInvalidRosterSize), ShouldBeTrue)
				var sizeErr *roster.InvalidRosterSizeError
				So(errors.As(err, &sizeErr), ShouldBeTrue)
				So(sizeErr.Count, ShouldEqual, n)
				So(sizeErr.Min, ShouldEqual, 12)
				So(sizeErr.Max, ShouldEqual, 15)
			})
		}
	})
}

func TestGeneratePartitionShape(t *testing.T) {
	Convey("Given valid rosters of every size", t, func() {
		e := engine.New(engine.WithSource(selector.NewSeeded(1)))

		for n := roster.MinPlayers; n <= roster.MaxPlayers; n++ {
			ps := varied(n)
			before := slices.Clone(ps)
			res, err := e.Generate(context.Background(), ps)

			Convey(fmt.Sprintf("Then %d players are split by the size table with no duplicates or omissions", n), func() {
				So(err, ShouldBeNil)
				assertCovers(res, ps)
				So(res.Report.Generated, ShouldEqual, partition.Count(n, res.Sizes))
				So(res.Stats, ShouldResemble, stats.Of(res.Partition))
			})

			Convey(fmt.Sprintf("Then the %d-player roster is left untouched", n), func() {
				So(ps, ShouldResemble, before)
			})
		}
	})
}

func TestGenerateUniformRoster(t *testing.T) {
	Convey("Given 12 players all scoring 10/10 with positions D,M,A repeating", t, func() {
		ps := uniform(12, func(i int) roster.Position { return roster.Position(i % 3) })
		e := engine.New(engine.WithSource(selector.NewSequence(0)))
		res, err := e.Generate(context.Background(), ps)
		So(err, ShouldBeNil)

		Convey("Then every partition passes the hard stages", func() {
			total := partition.Count(12, res.Sizes)
			So(res.Report.Survivors["coarse"], ShouldEqual, total)
			So(res.Report.Survivors["fine"], ShouldEqual, total)
			So(res.Report.Survivors["playmaker"], ShouldEqual, total)
			So(res.Stats.Diffs.Attack, ShouldEqual, 0)
			So(res.Stats.Diffs.Defense, ShouldEqual, 0)
		})

		Convey("Then the position-balanced subset is used and the first one is picked", func() {
			So(res.PositionBalanced, ShouldBeTrue)
			So(res.Fallback, ShouldBeFalse)
			So(res.Pool, ShouldEqual, res.Report.PositionBalanced)
			So(res.Seq, ShouldEqual, 0)
			So(res.Stats.PositionBalanced(1, 3), ShouldBeTrue)
		})
	})

	Convey("Given 12 uniform players who are all midfielders", t, func() {
		ps := uniform(12, func(int) roster.Position { return roster.Midfield })
		e := engine.New(engine.WithSource(selector.NewSequence(37)))
		res, err := e.Generate(context.Background(), ps)
		So(err, ShouldBeNil)

		Convey("Then no partition is position balanced and the playmaker-stage list is final", func() {
			So(res.Report.PositionBalanced, ShouldEqual, 0)
			So(res.PositionBalanced, ShouldBeFalse)
			So(res.Pool, ShouldEqual, partition.Count(12, res.Sizes))
		})

		Convey("Then the injected draw selects by discovery order", func() {
			So(res.Seq, ShouldEqual, 37)
		})
	})
}

func TestGenerateFallback(t *testing.T) {
	Convey("Given a roster with one dominant attacker", t, func() {
		ps := uniform(13, func(i int) roster.Position { return roster.Position(i % 3) })
		ps[6].Attack = 100
		e := engine.New(engine.WithSource(selector.NewSequence(50)))
		res, err := e.Generate(context.Background(), ps)

		Convey("Then nothing passes the coarse stage and the first partition is returned", func() {
			So(err, ShouldBeNil)
			So(res.Report.Survivors["coarse"], ShouldEqual, 0)
			So(res.Fallback, ShouldBeTrue)
			So(res.Seq, ShouldEqual, 0)
			So(res.Partition.Teams[0][0].Name, ShouldEqual, "u00")
			So(res.Partition.Teams[1][0].Name, ShouldEqual, "u05")
			So(res.Partition.Teams[2][0].Name, ShouldEqual, "u09")
			assertCovers(res, ps)
		})
	})
}

func TestGenerateExactSelection(t *testing.T) {
	Convey("Given a varied roster and a fixed draw", t, func() {
		ps := varied(12)
		th := engine.New().Thresholds()
		sizes, _ := roster.SizesFor(12)

		// Build the final list independently of the filter package.
		var hard, balanced []int
		seq := 0
		_ = partition.Each(context.Background(), ps, sizes, func(a partition.Assignment) bool {
			s := stats.Calculate(ps, &a)
			d := s.Diffs
			if d.Attack < th.CoarseAttack && d.Defense < th.CoarseDefense &&
				d.Attack < th.FineAttack && d.Defense < th.FineDefense &&
				d.Playmaker < th.Playmaker {
				hard = append(hard, seq)
				if s.PositionBalanced(1, 3) {
					balanced = append(balanced, seq)
				}
			}
			seq++
			return true
		})
		final := hard
		if len(balanced) >= 10 {
			final = balanced
		}

		for _, draw := range []int{0, 3, 99} {
			e := engine.New(engine.WithSource(selector.NewSequence(draw)))
			res, err := e.Generate(context.Background(), ps)

			Convey(fmt.Sprintf("Then draw %d selects the matching candidate", draw), func() {
				So(err, ShouldBeNil)
				if len(final) == 0 {
					So(res.Fallback, ShouldBeTrue)
					So(res.Seq, ShouldEqual, 0)
					return
				}
				window := min(len(final), 100)
				So(res.Seq, ShouldEqual, final[draw%window])
				So(res.Pool, ShouldEqual, len(final))
			})
		}
	})
}

func TestGenerateVariation(t *testing.T) {
	Convey("Given repeated runs with the default source", t, func() {
		ps := uniform(12, func(int) roster.Position { return roster.Midfield })
		e := engine.New()
		seen := map[int]bool{}
		for i := 0; i < 20; i++ {
			res, err := e.Generate(context.Background(), ps)
			So(err, ShouldBeNil)
			So(res.Seq, ShouldBeLessThan, 100)
			seen[res.Seq] = true
		}

		Convey("Then results vary but stay within the selection prefix", func() {
			So(len(seen), ShouldBeGreaterThan, 1)
		})
	})
}

func TestGenerateCancellation(t *testing.T) {
	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := engine.New().Generate(ctx, varied(15))

		Convey("Then the context error is returned and no result is produced", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
