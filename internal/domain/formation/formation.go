// Package formation picks the starting eleven and bench of a squad.
package formation

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/squadopt/internal/domain/player"
	"github.com/okian/squadopt/internal/domain/position"
	"github.com/okian/squadopt/internal/domain/types"
	"github.com/okian/squadopt/pkg/logger"
	"github.com/okian/squadopt/pkg/metrics"
)

// Line-up shape.
const (
	SquadSize   = 15
	StarterSize = 11
	BenchSize   = SquadSize - StarterSize
	minKeepers  = 2
	pointsTol   = 1e-9
)

// Formation is an outfield split. Exactly one goalkeeper always starts.
type Formation struct {
	DEF int
	MID int
	FWD int
}

func (f Formation) String() string {
	return fmt.Sprintf("%d-%d-%d", f.DEF, f.MID, f.FWD)
}

// Catalog lists the allowed formations in tie-break order.
var Catalog = []Formation{ //nolint:gochecknoglobals // fixed catalog
	{3, 4, 3},
	{3, 5, 2},
	{4, 3, 3},
	{4, 4, 2},
	{4, 5, 1},
	{5, 3, 2},
	{5, 4, 1},
}

// Select picks the formation whose starters score the most predicted
// points, the earliest catalog entry winning ties. A squad that is not 15
// players with at least two goalkeepers gets the "Invalid" fallback: the
// first 11 players start and the next 4 sit on the bench, in input order.
func Select(squad []player.Record) (types.LineupResult, error) {
	return selectFrom(Catalog, squad)
}

// Selector is Select with a configurable catalog and logging.
type Selector struct {
	catalog []Formation
	logger  logger.Logger
}

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithCatalog replaces the formation catalog; order still breaks ties.
func WithCatalog(catalog []Formation) Option {
	return func(s *Selector) {
		if len(catalog) > 0 {
			s.catalog = catalog
		}
	}
}

// WithLogger sets a custom logger for the selector.
func WithLogger(l logger.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSelector creates a selector over the default catalog.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{
		catalog: Catalog,
		logger:  logger.Get().Named("formation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select picks the line-up of squad.
func (s *Selector) Select(ctx context.Context, squad []player.Record) (types.LineupResult, error) {
	res, err := selectFrom(s.catalog, squad)
	switch {
	case err != nil:
		s.logger.Warn(ctx, "no formation fits squad", logger.Int("players", len(squad)), logger.Error(err))
	case !res.Valid():
		s.logger.Warn(ctx, "malformed squad, using fallback line-up", logger.Int("players", len(squad)))
	default:
		s.logger.Debug(ctx, "formation selected",
			logger.String("formation", res.Formation),
			logger.Float64("starting_points", res.StartingExpectedPoints),
		)
	}
	return res, err
}

func selectFrom(catalog []Formation, squad []player.Record) (types.LineupResult, error) {
	var groups [position.Count][]int
	for i, r := range squad {
		if r.Position.Valid() {
			groups[r.Position] = append(groups[r.Position], i)
		}
	}
	if len(squad) != SquadSize || len(groups[position.GKP]) < minKeepers {
		metrics.RecordLineupFallback()
		return fallback(squad), nil
	}

	for p := range groups {
		idx := groups[p]
		sort.SliceStable(idx, func(a, b int) bool {
			return squad[idx[a]].PredictedPoints > squad[idx[b]].PredictedPoints
		})
	}

	keeper := squad[groups[position.GKP][0]].PredictedPoints
	bestIdx, bestTotal := -1, 0.0
	for k, f := range catalog {
		need := [position.Count]int{1, f.DEF, f.MID, f.FWD}
		total, ok := keeper, true
		for _, p := range position.All[1:] {
			if len(groups[p]) < need[p] {
				ok = false
				break
			}
			for _, i := range groups[p][:need[p]] {
				total += squad[i].PredictedPoints
			}
		}
		if ok && (bestIdx < 0 || total > bestTotal+pointsTol) {
			bestIdx, bestTotal = k, total
		}
	}
	if bestIdx < 0 {
		return types.LineupResult{}, fmt.Errorf("%w: %d defenders, %d midfielders, %d forwards",
			ErrNoFeasibleFormation, len(groups[position.DEF]), len(groups[position.MID]), len(groups[position.FWD]))
	}

	f := catalog[bestIdx]
	need := [position.Count]int{1, f.DEF, f.MID, f.FWD}
	starting := make([]bool, len(squad))
	starters := make([]player.Record, 0, StarterSize)
	for _, p := range position.All {
		for _, i := range groups[p][:need[p]] {
			starting[i] = true
			starters = append(starters, squad[i])
		}
	}
	bench := make([]player.Record, 0, len(squad)-len(starters))
	for i, r := range squad {
		if !starting[i] {
			bench = append(bench, r)
		}
	}
	sort.SliceStable(bench, func(a, b int) bool {
		return bench[a].PredictedPoints > bench[b].PredictedPoints
	})

	metrics.RecordFormation(f.String())
	return types.LineupResult{
		Starters:               starters,
		Bench:                  bench,
		Formation:              f.String(),
		StartingExpectedPoints: types.Round(player.TotalPoints(starters), 2),
	}, nil
}

func fallback(squad []player.Record) types.LineupResult {
	n := min(len(squad), StarterSize)
	starters := append([]player.Record{}, squad[:n]...)
	bench := append([]player.Record{}, squad[n:min(len(squad), SquadSize)]...)
	return types.LineupResult{
		Starters:               starters,
		Bench:                  bench,
		Formation:              types.FormationInvalid,
		StartingExpectedPoints: types.Round(player.TotalPoints(starters), 2),
	}
}
