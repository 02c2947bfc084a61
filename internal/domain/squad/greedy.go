package squad

import (
	"sort"

	"github.com/okian/squadopt/internal/domain/player"
	"github.com/okian/squadopt/internal/domain/types"
)

// Greedy fills the squad by descending predicted points while respecting
// position quotas, the club cap and the budget. It never backtracks, so it
// may stop short of a full squad (status "Partial") where the MILP would not.
func Greedy(players []player.Record, budget float64, rules Rules) types.SquadResult {
	if len(players) == 0 {
		return types.EmptySquad(types.StatusNoPlayers)
	}
	cands := candidates(players)
	if len(cands) == 0 {
		return types.EmptySquad(types.StatusNoValidIDs)
	}

	picked := greedyPick(cands, budget, rules)
	squad := make([]player.Record, 0, len(picked))
	for _, i := range picked {
		squad = append(squad, cands[i])
	}
	status := types.StatusPartial
	if len(squad) == rules.SquadSize {
		status = types.StatusFeasible
	}
	return summarize(squad, budget, status)
}

// greedyPick returns candidate indices in input order.
func greedyPick(cands []player.Record, budget float64, rules Rules) []int {
	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cands[order[a]].PredictedPoints > cands[order[b]].PredictedPoints
	})

	need := rules.Required
	clubs := make(map[string]int)
	var cost float64
	picked := make([]int, 0, rules.SquadSize)
	for _, i := range order {
		if len(picked) == rules.SquadSize {
			break
		}
		r := cands[i]
		if need[r.Position] == 0 || clubs[r.Team] >= rules.MaxPerClub || cost+r.Price > budget+budgetTol {
			continue
		}
		need[r.Position]--
		clubs[r.Team]++
		cost += r.Price
		picked = append(picked, i)
	}
	sort.Ints(picked)
	return picked
}

// greedyStart turns a full greedy squad into a warm start vector.
func greedyStart(cands []player.Record, budget float64, rules Rules) []float64 {
	picked := greedyPick(cands, budget, rules)
	if len(picked) != rules.SquadSize {
		return nil
	}
	x := make([]float64, len(cands))
	for _, i := range picked {
		x[i] = 1
	}
	return x
}
