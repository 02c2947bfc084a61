package optimizer_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/okian/squadopt/internal/domain/milp"
	"github.com/okian/squadopt/internal/domain/optimizer"
	"github.com/okian/squadopt/internal/domain/player"
	"github.com/okian/squadopt/internal/domain/squad"
	"github.com/okian/squadopt/internal/domain/types"
	"github.com/okian/squadopt/internal/testplayers"
	"github.com/okian/squadopt/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type countingLineups struct {
	calls int
}

func (c *countingLineups) Select(_ context.Context, records []player.Record) (types.LineupResult, error) {
	c.calls++
	return types.LineupResult{Starters: records, Formation: "4-4-2"}, nil
}

type failingSquads struct{ err error }

func (f failingSquads) Select(context.Context, squad.Request) (types.SquadResult, error) {
	return types.EmptySquad("Not Solved"), f.err
}

func newOptimizer(opts ...optimizer.Option) *optimizer.Optimizer {
	_ = logger.Init(logger.WithWriter(io.Discard))
	return optimizer.New(squad.NewSelector(milp.NewBranchAndBound()), opts...)
}

func request(budget float64, lineup bool) optimizer.Request {
	return optimizer.Request{
		Request:               squad.Request{Players: testplayers.Scenario20(), Budget: budget},
		IncludeStartingEleven: lineup,
	}
}

func TestOptimize(t *testing.T) {
	Convey("Given the twenty player pool", t, func() {
		opt := newOptimizer()

		Convey("When optimized at budget 100", func() {
			res, err := opt.Optimize(context.Background(), request(100, true))

			Convey("Then the squad and line-up should be merged", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, types.StatusOptimal)
				So(len(res.Squad), ShouldEqual, 15)
				So(len(res.Starters), ShouldEqual, 11)
				So(len(res.Bench), ShouldEqual, 4)
				So(res.Formation, ShouldNotBeNil)
				So(*res.Formation, ShouldNotEqual, types.FormationInvalid)
				So(res.StartingExpectedPoints, ShouldNotBeNil)
				So(*res.StartingExpectedPoints, ShouldBeLessThanOrEqualTo, res.ExpectedPoints)
			})
		})

		Convey("When optimized twice", func() {
			a, errA := opt.Optimize(context.Background(), request(95, true))
			b, errB := opt.Optimize(context.Background(), request(95, true))

			Convey("Then the results should be identical", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(player.IDs(a.Squad), ShouldResemble, player.IDs(b.Squad))
				So(a.TotalCost, ShouldEqual, b.TotalCost)
				So(*a.Formation, ShouldEqual, *b.Formation)
				So(player.IDs(a.Starters), ShouldResemble, player.IDs(b.Starters))
			})
		})

		Convey("When the line-up is not requested", func() {
			res, err := opt.Optimize(context.Background(), request(100, false))

			Convey("Then the line-up fields should stay nil", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, types.StatusOptimal)
				So(res.Starters, ShouldBeNil)
				So(res.Formation, ShouldBeNil)
				So(res.StartingExpectedPoints, ShouldBeNil)
			})
		})
	})
}

func TestOptimizeShortCircuit(t *testing.T) {
	Convey("Given a budget no squad fits", t, func() {
		lineups := &countingLineups{}
		opt := newOptimizer(optimizer.WithLineupSelector(lineups))

		Convey("When optimized", func() {
			res, err := opt.Optimize(context.Background(), request(10, true))

			Convey("Then the failure should pass through untouched", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldNotEqual, types.StatusOptimal)
				So(res.Squad, ShouldBeEmpty)
				So(res.Formation, ShouldBeNil)
				So(lineups.calls, ShouldEqual, 0)
			})
		})

		Convey("When the pool is empty", func() {
			res, err := opt.Optimize(context.Background(), optimizer.Request{IncludeStartingEleven: true})

			Convey("Then the status should explain it", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, types.StatusNoPlayers)
				So(lineups.calls, ShouldEqual, 0)
			})
		})

		Convey("When the budget fits", func() {
			_, err := opt.Optimize(context.Background(), request(100, true))

			Convey("Then the line-up selector should run once", func() {
				So(err, ShouldBeNil)
				So(lineups.calls, ShouldEqual, 1)
			})
		})
	})
}

func TestOptimizeErrors(t *testing.T) {
	Convey("Given a squad selector that fails", t, func() {
		_ = logger.Init(logger.WithWriter(io.Discard))
		opt := optimizer.New(failingSquads{err: milp.ErrSolverUnavailable})

		Convey("When optimized", func() {
			res, err := opt.Optimize(context.Background(), request(100, true))

			Convey("Then the error should be wrapped", func() {
				So(errors.Is(err, milp.ErrSolverUnavailable), ShouldBeTrue)
				So(res.Status, ShouldEqual, "Not Solved")
				So(res.Squad, ShouldBeEmpty)
			})
		})
	})
}

func TestSelectLineup(t *testing.T) {
	Convey("Given a squad with one goalkeeper", t, func() {
		opt := newOptimizer()
		pool := testplayers.Scenario20()[2:17]

		Convey("When only the line-up is selected", func() {
			res, err := opt.SelectLineup(context.Background(), pool)

			Convey("Then the fallback should be used", func() {
				So(err, ShouldBeNil)
				So(res.Formation, ShouldEqual, types.FormationInvalid)
				So(len(res.Starters), ShouldEqual, 11)
				So(len(res.Bench), ShouldEqual, 4)
			})
		})
	})
}
