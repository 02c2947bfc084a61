package squad

import (
	"github.com/okian/squadopt/internal/domain/player"
)

// dominated reports, per candidate, whether some optimal squad can always do
// without it.
//
// i dominates j when both play the same position, i costs no more and scores
// no less, with input order breaking exact ties. Swapping j for an unpicked
// dominator keeps position, budget and transfer rows intact and never lowers
// the objective; the club row holds when the dominator shares j's club or
// its club still has room. That is guaranteed when j has at least k
// same-club dominators (k is j's position quota), or when its dominators
// span more other clubs than the k-1 picked dominators and the
// (size-1)/cap full clubs can block. Players in the existing squad are
// never dropped.
func dominated(cands []player.Record, existing map[string]struct{}, rules Rules) []bool {
	out := make([]bool, len(cands))
	if rules.MaxPerClub < 1 {
		return out
	}
	fullClubs := (rules.SquadSize - 1) / rules.MaxPerClub

	for j, pj := range cands {
		if _, keep := existing[pj.ID]; keep {
			continue
		}
		quota := rules.Required[pj.Position]
		if quota < 1 {
			continue
		}
		sameClub := 0
		otherClubs := make(map[string]struct{})
		for i, pi := range cands {
			if i == j || !dominates(pi, pj, i < j) {
				continue
			}
			if pi.Team == pj.Team {
				sameClub++
			} else {
				otherClubs[pi.Team] = struct{}{}
			}
		}
		if sameClub >= quota || len(otherClubs) >= quota+fullClubs {
			out[j] = true
		}
	}
	return out
}

func dominates(a, b player.Record, aFirst bool) bool {
	if a.Position != b.Position || a.Price > b.Price || a.PredictedPoints < b.PredictedPoints {
		return false
	}
	if a.Price < b.Price || a.PredictedPoints > b.PredictedPoints {
		return true
	}
	return aFirst
}
