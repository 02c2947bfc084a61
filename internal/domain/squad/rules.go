package squad

import (
	"fmt"

	"github.com/okian/squadopt/internal/domain/player"
	"github.com/okian/squadopt/internal/domain/position"
)

const budgetTol = 1e-6

// Rules are the structural squad constraints.
type Rules struct {
	SquadSize  int
	Required   [position.Count]int
	MaxPerClub int
}

// DefaultRules is the 15-player 2/5/5/3 squad with at most 3 per club.
func DefaultRules() Rules {
	return Rules{
		SquadSize:  15,
		Required:   [position.Count]int{2, 5, 5, 3},
		MaxPerClub: 3,
	}
}

// Validate checks a finished squad against the rules and the budget.
func Validate(squad []player.Record, rules Rules, budget float64) error {
	if len(squad) != rules.SquadSize {
		return fmt.Errorf("%w: %d players, want %d", ErrSquadSize, len(squad), rules.SquadSize)
	}

	var counts [position.Count]int
	clubs := make(map[string]int)
	seen := make(map[string]struct{}, len(squad))
	for _, r := range squad {
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicatePlayer, r.ID)
		}
		seen[r.ID] = struct{}{}
		if !r.Position.Valid() {
			return fmt.Errorf("%w: %s has %s", ErrPositionQuota, r.ID, r.Position)
		}
		counts[r.Position]++
		clubs[r.Team]++
	}
	for _, p := range position.All {
		if counts[p] != rules.Required[p] {
			return fmt.Errorf("%w: %d %s, want %d", ErrPositionQuota, counts[p], p, rules.Required[p])
		}
	}
	for team, n := range clubs {
		if n > rules.MaxPerClub {
			return fmt.Errorf("%w: %d from %s", ErrClubLimit, n, team)
		}
	}
	if cost := player.TotalPrice(squad); cost > budget+budgetTol {
		return fmt.Errorf("%w: %.2f > %.2f", ErrOverBudget, cost, budget)
	}
	return nil
}
