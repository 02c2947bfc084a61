// Package testplayers builds deterministic player pools for tests and for the
// gen-players tool.
package testplayers

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/okian/squadopt/internal/domain/player"
	"github.com/okian/squadopt/internal/domain/position"
)

// Price and points ranges per position.
type band struct {
	minPrice, maxPrice float64
	minPts, maxPts     float64
}

var bands = [position.Count]band{ //nolint:gochecknoglobals // fixed ranges
	position.GKP: {4.0, 6.0, 1.5, 5.0},
	position.DEF: {4.0, 7.0, 1.5, 6.0},
	position.MID: {4.5, 13.0, 2.0, 9.0},
	position.FWD: {4.5, 14.5, 2.0, 9.5},
}

// namespace scopes deterministic player ids.
var namespace = uuid.MustParse("8f3c2a4e-1c0b-4d8e-9a57-3b6f0e1d2c7a") //nolint:gochecknoglobals // fixed namespace

// ID returns the deterministic id of the n-th player of a club.
func ID(club string, pos position.Position, n int) string {
	return uuid.NewSHA1(namespace, []byte(fmt.Sprintf("%s/%s/%d", club, pos, n))).String()
}

// Generate builds a league. The same config always yields the same pool.
func Generate(cfg Config) []player.Record {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible fixtures

	perPos := [position.Count]int{cfg.Goalkeepers, cfg.Defenders, cfg.Midfielders, cfg.Forwards}
	out := make([]player.Record, 0, cfg.Clubs*(perPos[0]+perPos[1]+perPos[2]+perPos[3]))
	for c := 0; c < cfg.Clubs; c++ {
		club := fmt.Sprintf("CLUB%02d", c+1)
		for _, pos := range position.All {
			b := bands[pos]
			for n := 0; n < perPos[pos]; n++ {
				// Points loosely follow price so the pool is not trivially dominated.
				q := rng.Float64()
				price := round1(b.minPrice + q*(b.maxPrice-b.minPrice))
				noise := (rng.Float64() - 0.5) * (b.maxPts - b.minPts) * 0.6
				pts := math.Round((b.minPts+q*(b.maxPts-b.minPts)+noise)*100) / 100
				r := player.New(ID(club, pos, n), pos, club, price, pts)
				r.Extra = map[string]any{"name": fmt.Sprintf("%s %s %d", club, pos, n+1)}
				out = append(out, r)
			}
		}
	}
	return out
}

// Scenario20 is the 20-player pool of three goalkeepers priced 4-6, seven
// defenders priced 4-6, seven midfielders priced 5-8 and three forwards
// priced 7-10, each from its own club.
func Scenario20() []player.Record {
	rows := []struct {
		pos    position.Position
		price  float64
		points float64
	}{
		{position.GKP, 4.0, 3.1}, {position.GKP, 5.0, 3.8}, {position.GKP, 6.0, 4.4},
		{position.DEF, 4.0, 2.9}, {position.DEF, 4.5, 3.3}, {position.DEF, 5.0, 3.9},
		{position.DEF, 5.0, 4.1}, {position.DEF, 5.5, 4.6}, {position.DEF, 6.0, 5.2},
		{position.DEF, 6.0, 4.8},
		{position.MID, 5.0, 3.5}, {position.MID, 5.5, 4.2}, {position.MID, 6.0, 4.9},
		{position.MID, 6.5, 5.3}, {position.MID, 7.0, 6.1}, {position.MID, 7.5, 6.6},
		{position.MID, 8.0, 7.4},
		{position.FWD, 7.0, 5.8}, {position.FWD, 8.5, 6.9}, {position.FWD, 10.0, 8.7},
	}
	out := make([]player.Record, len(rows))
	for i, s := range rows {
		out[i] = player.New(fmt.Sprintf("p%02d", i+1), s.pos, fmt.Sprintf("T%02d", i+1), s.price, s.points)
	}
	return out
}

// WriteJSON encodes the pool as an indented JSON array.
func WriteJSON(w io.Writer, records []player.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode players: %w", err)
	}
	return nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
