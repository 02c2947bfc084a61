package formation_test

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/okian/squadopt/internal/domain/formation"
	"github.com/okian/squadopt/internal/domain/player"
	"github.com/okian/squadopt/internal/domain/position"
	"github.com/okian/squadopt/internal/domain/types"
	"github.com/okian/squadopt/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// build makes a squad from per-position point lists.
func build(gk, def, mid, fwd []float64) []player.Record {
	var out []player.Record
	add := func(pos position.Position, pts []float64) {
		for i, v := range pts {
			out = append(out, player.New(fmt.Sprintf("%s%d", pos, i), pos, fmt.Sprintf("T%d", len(out)), 5, v))
		}
	}
	add(position.GKP, gk)
	add(position.DEF, def)
	add(position.MID, mid)
	add(position.FWD, fwd)
	return out
}

func count(records []player.Record, pos position.Position) int {
	n := 0
	for _, r := range records {
		if r.Position == pos {
			n++
		}
	}
	return n
}

func TestSelectFormation(t *testing.T) {
	Convey("Given a squad with strong forwards", t, func() {
		sq := build(
			[]float64{5, 3},
			[]float64{4, 4, 4, 1, 1},
			[]float64{5, 5, 5, 5, 2},
			[]float64{8, 7, 6},
		)

		Convey("When the line-up is selected", func() {
			res, err := formation.Select(sq)

			Convey("Then 3-4-3 should win", func() {
				So(err, ShouldBeNil)
				So(res.Formation, ShouldEqual, "3-4-3")
				So(res.StartingExpectedPoints, ShouldEqual, 5+12+20+21)
			})

			Convey("And there should be 11 starters and 4 bench players", func() {
				So(len(res.Starters), ShouldEqual, 11)
				So(len(res.Bench), ShouldEqual, 4)
				So(count(res.Starters, position.GKP), ShouldEqual, 1)
				So(res.Starters[0].ID, ShouldEqual, "GKP0")
			})

			Convey("And the bench should be sorted by points", func() {
				for i := 1; i < len(res.Bench); i++ {
					So(res.Bench[i-1].PredictedPoints, ShouldBeGreaterThanOrEqualTo, res.Bench[i].PredictedPoints)
				}
				So(res.Bench[0].ID, ShouldEqual, "GKP1")
			})
		})
	})

	Convey("Given a squad with strong defenders", t, func() {
		sq := build(
			[]float64{5, 3},
			[]float64{9, 9, 9, 9, 9},
			[]float64{5, 5, 5, 1, 1},
			[]float64{6, 1, 1},
		)
		res, err := formation.Select(sq)

		Convey("Then 5-3-2 should win", func() {
			So(err, ShouldBeNil)
			So(res.Formation, ShouldEqual, "5-3-2")
			So(res.StartingExpectedPoints, ShouldEqual, 5+45+15+7)
		})
	})

	Convey("Given a squad where every formation scores the same", t, func() {
		sq := build(
			[]float64{2, 2},
			[]float64{3, 3, 3, 3, 3},
			[]float64{3, 3, 3, 3, 3},
			[]float64{3, 3, 3},
		)
		res, err := formation.Select(sq)

		Convey("Then the first catalog entry should win", func() {
			So(err, ShouldBeNil)
			So(res.Formation, ShouldEqual, "3-4-3")
		})
	})

	Convey("Given any valid squad", t, func() {
		sq := build(
			[]float64{4.5, 4.4},
			[]float64{5.2, 4.8, 4.6, 4.1, 3.9},
			[]float64{7.4, 6.6, 6.1, 5.3, 4.9},
			[]float64{5.8, 6.9, 8.7},
		)
		res, err := formation.Select(sq)

		Convey("Then the split should come from the catalog", func() {
			So(err, ShouldBeNil)
			split := fmt.Sprintf("%d-%d-%d", count(res.Starters, position.DEF), count(res.Starters, position.MID), count(res.Starters, position.FWD))
			So(split, ShouldEqual, res.Formation)
			var labels []string
			for _, f := range formation.Catalog {
				labels = append(labels, f.String())
			}
			So(labels, ShouldContain, res.Formation)
		})

		Convey("Then starters and bench should partition the squad", func() {
			seen := map[string]int{}
			for _, r := range append(append([]player.Record{}, res.Starters...), res.Bench...) {
				seen[r.ID]++
			}
			So(len(seen), ShouldEqual, 15)
			for _, n := range seen {
				So(n, ShouldEqual, 1)
			}
		})

		Convey("Then the input should not be reordered", func() {
			So(sq[0].ID, ShouldEqual, "GKP0")
			So(sq[14].ID, ShouldEqual, "FWD2")
		})
	})
}

func TestSelectFallback(t *testing.T) {
	Convey("Given a squad with a single goalkeeper", t, func() {
		sq := build(
			[]float64{5},
			[]float64{4, 4, 4, 4, 4, 4},
			[]float64{5, 5, 5, 5, 5},
			[]float64{6, 6, 6},
		)

		Convey("When the line-up is selected", func() {
			res, err := formation.Select(sq)

			Convey("Then the Invalid fallback should split by input order", func() {
				So(err, ShouldBeNil)
				So(res.Formation, ShouldEqual, types.FormationInvalid)
				So(res.Valid(), ShouldBeFalse)
				So(player.IDs(res.Starters), ShouldResemble, player.IDs(sq[:11]))
				So(player.IDs(res.Bench), ShouldResemble, player.IDs(sq[11:]))
			})
		})
	})

	Convey("Given a short squad", t, func() {
		sq := build([]float64{5, 4}, []float64{4, 4, 4}, []float64{5, 5}, []float64{6})
		res, err := formation.Select(sq)

		Convey("Then every player should start", func() {
			So(err, ShouldBeNil)
			So(res.Formation, ShouldEqual, types.FormationInvalid)
			So(len(res.Starters), ShouldEqual, 8)
			So(res.Bench, ShouldBeEmpty)
			So(res.StartingExpectedPoints, ShouldEqual, 37)
		})
	})

	Convey("Given an empty squad", t, func() {
		res, err := formation.Select(nil)
		So(err, ShouldBeNil)
		So(res.Formation, ShouldEqual, types.FormationInvalid)
		So(res.Starters, ShouldBeEmpty)
	})
}

func TestSelectNoFeasibleFormation(t *testing.T) {
	Convey("Given fifteen players with too few defenders", t, func() {
		sq := build(
			[]float64{5, 4, 3, 3, 3, 3},
			[]float64{4, 4},
			[]float64{5, 5, 5, 5, 5},
			[]float64{6, 6},
		)

		Convey("When the line-up is selected", func() {
			_, err := formation.Select(sq)

			Convey("Then no formation should fit", func() {
				So(err, ShouldWrap, formation.ErrNoFeasibleFormation)
			})
		})
	})
}

func TestSelector(t *testing.T) {
	Convey("Given a selector with a restricted catalog", t, func() {
		_ = logger.Init(logger.WithWriter(io.Discard))
		sel := formation.NewSelector(formation.WithCatalog([]formation.Formation{{4, 4, 2}}))
		sq := build(
			[]float64{5, 3},
			[]float64{4, 4, 4, 1, 1},
			[]float64{5, 5, 5, 5, 2},
			[]float64{8, 7, 6},
		)

		Convey("When it selects", func() {
			res, err := sel.Select(context.Background(), sq)

			Convey("Then only the allowed formation should be used", func() {
				So(err, ShouldBeNil)
				So(res.Formation, ShouldEqual, "4-4-2")
			})
		})
	})
}
