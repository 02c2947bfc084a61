// Package position maps free-form position labels onto the four canonical
// fantasy-football positions.
package position

import (
	"fmt"
	"strings"
)

// Position is one of the four canonical squad positions.
type Position int

// Canonical positions in squad order.
const (
	GKP Position = iota
	DEF
	MID
	FWD
)

// Count is the number of canonical positions.
const Count = 4

// All lists the canonical positions in squad order.
var All = [Count]Position{GKP, DEF, MID, FWD} //nolint:gochecknoglobals // fixed catalog

var names = [Count]string{"GKP", "DEF", "MID", "FWD"} //nolint:gochecknoglobals // fixed catalog

var synonyms = map[string]Position{ //nolint:gochecknoglobals // lookup table
	"GKP": GKP, "GK": GKP, "G": GKP, "GOALKEEPER": GKP, "KEEPER": GKP,
	"DEF": DEF, "D": DEF, "DF": DEF, "DEFENDER": DEF, "CB": DEF, "LB": DEF, "RB": DEF, "WB": DEF,
	"MID": MID, "M": MID, "MF": MID, "MIDFIELDER": MID, "CM": MID, "DM": MID, "AM": MID, "LM": MID, "RM": MID,
	"FWD": FWD, "FW": FWD, "F": FWD, "FORWARD": FWD, "ST": FWD, "STRIKER": FWD, "CF": FWD,
}

// Normalize maps a label to its canonical position. Matching ignores case and
// surrounding whitespace; unknown or empty labels map to MID.
func Normalize(label string) Position {
	if p, ok := Lookup(label); ok {
		return p
	}
	return MID
}

// Lookup is Normalize without the MID default.
func Lookup(label string) (Position, bool) {
	p, ok := synonyms[strings.ToUpper(strings.TrimSpace(label))]
	return p, ok
}

// FromElementType converts the FPL element_type code (1..4).
func FromElementType(code int) (Position, bool) {
	if code < 1 || code > Count {
		return MID, false
	}
	return All[code-1], true
}

// Valid reports whether p is one of the canonical positions.
func (p Position) Valid() bool {
	return p >= GKP && p <= FWD
}

// Order is the sort key for canonical squad order.
func (p Position) Order() int {
	return int(p)
}

func (p Position) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Position(%d)", int(p))
	}
	return names[p]
}

// MarshalText encodes the canonical label.
func (p Position) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPosition, int(p))
	}
	return []byte(names[p]), nil
}

// UnmarshalText accepts any label Normalize understands.
func (p *Position) UnmarshalText(text []byte) error {
	*p = Normalize(string(text))
	return nil
}
