package formation

import "errors"

// ErrNoFeasibleFormation is returned when a well-formed squad fits none of
// the catalog formations.
var ErrNoFeasibleFormation = errors.New("no feasible formation")
