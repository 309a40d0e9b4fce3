package partition_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/okian/fairteams/internal/domain/partition"
	"github.com/okian/fairteams/internal/domain/roster"
	. "github.com/smartystreets/goconvey/convey"
)

func players(n int) []roster.Player {
	out := make([]roster.Player, n)
	for i := range out {
		out[i] = roster.Player{Name: fmt.Sprintf("p%02d", i), Attack: float64(i), Defense: float64(n - i)}
	}
	return out
}

func TestEach(t *testing.T) {
	Convey("Given a 12-player roster", t, func() {
		ps := players(12)
		sizes, err := roster.SizesFor(len(ps))
		So(err, ShouldBeNil)

		var all []partition.Assignment
		err = partition.Each(context.Background(), ps, sizes, func(a partition.Assignment) bool {
			all = append(all, a)
			return true
		})
		So(err, ShouldBeNil)

		Convey("Then it yields C(12,4)*C(8,4) assignments", func() {
			So(len(all), ShouldEqual, 495*70)
			So(partition.Count(12, sizes), ShouldEqual, len(all))
		})

		Convey("Then every assignment covers each player exactly once with the right sizes", func() {
			for _, a := range all[:500] {
				seen := map[uint8]int{}
				for team := 0; team < 3; team++ {
					idx := a.Team(team)
					So(len(idx), ShouldEqual, sizes[team])
					for _, i := range idx {
						seen[i]++
					}
				}
				So(len(seen), ShouldEqual, 12)
				for _, c := range seen {
					So(c, ShouldEqual, 1)
				}
			}
		})

		Convey("Then no assignment repeats", func() {
			keys := make(map[[roster.MaxPlayers]uint8]bool, len(all))
			for _, a := range all {
				keys[a.Key()] = true
			}
			So(len(keys), ShouldEqual, len(all))
		})

		Convey("Then the first assignment is the lexicographically smallest", func() {
			first := all[0]
			So(first.Team(0), ShouldResemble, []uint8{0, 1, 2, 3})
			So(first.Team(1), ShouldResemble, []uint8{4, 5, 6, 7})
			So(first.Team(2), ShouldResemble, []uint8{8, 9, 10, 11})
			second := all[1]
			So(second.Team(0), ShouldResemble, []uint8{0, 1, 2, 3})
			So(second.Team(1), ShouldResemble, []uint8{4, 5, 6, 8})
			So(second.Team(2), ShouldResemble, []uint8{7, 9, 10, 11})
		})

		Convey("Then materializing resolves players without touching the roster", func() {
			p := all[1].Materialize(ps)
			So(p.Teams[1][3].Name, ShouldEqual, "p08")
			So(p.Teams[2][0].Name, ShouldEqual, "p07")
			p.Teams[0][0].Name = "changed"
			So(ps[0].Name, ShouldEqual, "p00")
		})
	})

	Convey("Given uneven sizes", t, func() {
		for _, n := range []int{13, 14} {
			sizes, _ := roster.SizesFor(n)
			count := 0
			_ = partition.Each(context.Background(), players(n), sizes, func(a partition.Assignment) bool {
				count++
				return count < 10
			})

			Convey(fmt.Sprintf("Then early stop is honoured for %d players", n), func() {
				So(count, ShouldEqual, 10)
			})
		}
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		sizes, _ := roster.SizesFor(15)
		called := 0
		err := partition.Each(ctx, players(15), sizes, func(partition.Assignment) bool {
			called++
			return true
		})

		Convey("Then enumeration stops at the first checkpoint", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(called, ShouldEqual, 0)
		})
	})

	Convey("Given cancellation midway", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sizes, _ := roster.SizesFor(15)
		called := 0
		err := partition.Each(ctx, players(15), sizes, func(partition.Assignment) bool {
			called++
			if called == 1 {
				cancel()
			}
			return true
		})

		Convey("Then the current team 1 choice finishes and the walk aborts", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(called, ShouldEqual, 252) // C(10,5) team 2 choices for the first team 1
		})
	})
}
