package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	service "github.com/okian/squadopt/internal/app"
	"github.com/okian/squadopt/internal/domain/optimizer"
	"github.com/okian/squadopt/internal/domain/player"
	"github.com/okian/squadopt/internal/domain/squad"
	"github.com/okian/squadopt/internal/domain/types"
	"github.com/okian/squadopt/internal/testplayers"
	. "github.com/smartystreets/goconvey/convey"
)

func scenario(budget float64) optimizer.Request {
	return optimizer.Request{
		Request:               squad.Request{Players: testplayers.Scenario20(), Budget: budget},
		IncludeStartingEleven: true,
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(2), service.WithRequestTimeout(20*time.Second))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("When optimizing the twenty player pool at budget 100", func() {
			res, err := svc.Optimize(context.Background(), scenario(100))

			Convey("Then a full squad and line-up should come back", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, types.StatusOptimal)
				So(len(res.Squad), ShouldEqual, 15)
				So(res.TotalCost, ShouldBeLessThanOrEqualTo, 100)
				So(len(res.Starters), ShouldEqual, 11)
				So(len(res.Bench), ShouldEqual, 4)
				So(res.Formation, ShouldNotBeNil)
			})

			Convey("And the squad should honour the rules", func() {
				So(squad.Validate(res.Squad, squad.DefaultRules(), 100), ShouldBeNil)
			})

			Convey("And the job should be counted", func() {
				So(svc.GetStats()["processedJobs"], ShouldEqual, int64(1))
			})
		})

		Convey("When the budget is too small", func() {
			res, err := svc.Optimize(context.Background(), scenario(10))

			Convey("Then the solver status should come back without an error", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldNotEqual, types.StatusOptimal)
				So(res.Squad, ShouldBeEmpty)
				So(res.Formation, ShouldBeNil)
			})
		})

		Convey("When the pool is empty", func() {
			res, err := svc.Optimize(context.Background(), optimizer.Request{IncludeStartingEleven: true})

			Convey("Then the status should explain it", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, types.StatusNoPlayers)
			})
		})

		Convey("When selecting a line-up for a single-goalkeeper squad", func() {
			res, err := svc.SelectLineup(context.Background(), testplayers.Scenario20()[2:17])

			Convey("Then the Invalid fallback should be used", func() {
				So(err, ShouldBeNil)
				So(res.Formation, ShouldEqual, types.FormationInvalid)
			})
		})

		Convey("When selecting a line-up for an optimized squad", func() {
			opt, err := svc.Optimize(context.Background(), scenario(100))
			So(err, ShouldBeNil)
			res, err := svc.SelectLineup(context.Background(), opt.Squad)

			Convey("Then it should match the combined result", func() {
				So(err, ShouldBeNil)
				So(res.Formation, ShouldEqual, *opt.Formation)
				So(player.IDs(res.Starters), ShouldResemble, player.IDs(opt.Starters))
			})
		})

		Convey("When the caller's context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			res, err := svc.Optimize(ctx, scenario(100))

			Convey("Then no result should be produced", func() {
				So(err, ShouldNotBeNil)
				So(res.Squad, ShouldBeEmpty)
			})
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a service with several workers", t, func() {
		svc := service.New(service.WithWorkerCount(4), service.WithRequestTimeout(60*time.Second))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("When many goroutines optimize at once", func() {
			budgets := []float64{80, 85, 90, 95, 100, 10, 100, 95}
			results := make([]types.Result, len(budgets))
			errs := make([]error, len(budgets))
			var wg sync.WaitGroup
			for i, b := range budgets {
				wg.Add(1)
				go func(i int, b float64) {
					defer wg.Done()
					results[i], errs[i] = svc.Optimize(context.Background(), scenario(b))
				}(i, b)
			}
			wg.Wait()

			Convey("Then every request should get its own answer", func() {
				for i, b := range budgets {
					So(errs[i], ShouldBeNil)
					if results[i].OK() {
						So(results[i].TotalCost, ShouldBeLessThanOrEqualTo, b)
					}
				}
				So(results[5].OK(), ShouldBeFalse)
				So(player.IDs(results[4].Squad), ShouldResemble, player.IDs(results[6].Squad))
				So(results[3].ExpectedPoints, ShouldEqual, results[7].ExpectedPoints)
			})

			Convey("And a higher budget should never score lower", func() {
				for i := 1; i < 5; i++ {
					So(results[i].ExpectedPoints, ShouldBeGreaterThanOrEqualTo, results[i-1].ExpectedPoints)
				}
			})
		})
	})
}

// bigPool builds a pool large enough that a solve takes longer than a
// very short timeout.
func bigPool() []player.Record {
	return testplayers.Generate(testplayers.Config{
		Clubs:       20,
		Seed:        11,
		Goalkeepers: 3,
		Defenders:   8,
		Midfielders: 8,
		Forwards:    4,
	})
}

func TestServiceErrorHandling(t *testing.T) {
	Convey("Given a service with a tiny timeout", t, func() {
		svc := service.New(service.WithWorkerCount(1), service.WithRequestTimeout(time.Millisecond))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("When a large pool is optimized", func() {
			req := optimizer.Request{Request: squad.Request{Players: bigPool(), Budget: 100}}
			res, err := svc.Optimize(context.Background(), req)

			Convey("Then the deadline should be reported", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				So(res.OK(), ShouldBeFalse)
				So(res.Squad, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a service with a one-slot queue and one busy worker", t, func() {
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithQueueSize(1),
			service.WithRequestTimeout(30*time.Second),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("When more requests arrive than can be held", func() {
			const n = 12
			errs := make(chan error, n)
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := svc.Optimize(context.Background(), scenario(100))
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)

			Convey("Then the overflow should be rejected, not queued", func() {
				var rejected, ok int
				for err := range errs {
					switch {
					case err == nil:
						ok++
					case errors.Is(err, service.ErrBackpressure):
						rejected++
					}
				}
				So(ok, ShouldBeGreaterThan, 0)
				So(ok+rejected, ShouldEqual, n)
			})
		})
	})
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service started and stopped twice", t, func() {
		svc := service.New(service.WithWorkerCount(1))

		for i := 0; i < 2; i++ {
			So(svc.Start(context.Background()), ShouldBeNil)
			res, err := svc.Optimize(context.Background(), scenario(100))
			So(err, ShouldBeNil)
			So(res.Status, ShouldEqual, types.StatusOptimal)
			svc.Stop()
		}

		Convey("Then it should end stopped", func() {
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})
}
