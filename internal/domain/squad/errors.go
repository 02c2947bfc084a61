package squad

import "errors"

// Sentinel errors for squad selection.
var (
	ErrInvalidSolution = errors.New("solver returned an invalid squad")
	ErrSquadSize       = errors.New("squad size mismatch")
	ErrPositionQuota   = errors.New("position quota mismatch")
	ErrClubLimit       = errors.New("too many players from one club")
	ErrOverBudget      = errors.New("squad over budget")
	ErrDuplicatePlayer = errors.New("player selected twice")
)
