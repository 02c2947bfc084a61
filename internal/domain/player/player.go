// Package player defines the scored player record consumed by the optimizer.
package player

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/squadopt/internal/domain/position"
)

// UnknownTeam is used when a record carries no team.
const UnknownTeam = "Unknown"

// Wire keys owned by Record. Everything else lands in Extra.
const (
	keyID              = "id"
	keyPosition        = "position"
	keyTeam            = "team"
	keyPrice           = "price"
	keyPredictedPoints = "predicted_points"
	keyElementType     = "element_type"
	keyNowCost         = "now_cost"
)

// Record is one scored candidate. Records are treated as read-only once
// decoded.
type Record struct {
	ID              string
	Position        position.Position
	RawPosition     string
	Team            string
	Price           float64
	PredictedPoints float64
	Extra           map[string]any
}

// New builds a record from its core fields.
func New(id string, pos position.Position, team string, price, points float64) Record {
	if team == "" {
		team = UnknownTeam
	}
	return Record{
		ID:              id,
		Position:        pos,
		RawPosition:     pos.String(),
		Team:            team,
		Price:           price,
		PredictedPoints: points,
	}
}

// Validate checks the boundary invariants of a record.
func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrMissingID
	}
	if r.Price < 0 || math.IsNaN(r.Price) {
		return fmt.Errorf("%w: %s has %v", ErrNegativePrice, r.ID, r.Price)
	}
	return nil
}

// UnmarshalJSON decodes a record, accepting FPL-style fields: numeric ids and
// teams, element_type when position is missing and now_cost (tenths) when
// price is missing.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %w", ErrNotAnObject, err)
	}
	if raw == nil {
		return ErrNotAnObject
	}

	out := Record{Team: UnknownTeam}
	out.ID = scalarString(raw[keyID])
	if team := scalarString(raw[keyTeam]); team != "" {
		out.Team = team
	}

	out.Position = position.MID
	if label, ok := raw[keyPosition].(string); ok {
		out.RawPosition = label
		out.Position = position.Normalize(label)
	} else if code, err := number(raw[keyElementType]); err == nil && code != nil {
		if p, ok := position.FromElementType(int(*code)); ok {
			out.Position = p
			out.RawPosition = p.String()
		}
	}

	price, err := number(raw[keyPrice])
	if err != nil {
		return fmt.Errorf("%s: %w", keyPrice, err)
	}
	if price == nil {
		tenths, err := number(raw[keyNowCost])
		if err != nil {
			return fmt.Errorf("%s: %w", keyNowCost, err)
		}
		if tenths != nil {
			v := *tenths / 10
			price = &v
		}
	}
	if price != nil {
		out.Price = *price
	}

	pts, err := number(raw[keyPredictedPoints])
	if err != nil {
		return fmt.Errorf("%s: %w", keyPredictedPoints, err)
	}
	if pts != nil {
		out.PredictedPoints = *pts
	}

	for _, k := range []string{keyID, keyPosition, keyTeam, keyPrice, keyPredictedPoints} {
		delete(raw, k)
	}
	if len(raw) > 0 {
		out.Extra = raw
	}

	*r = out
	return nil
}

// MarshalJSON emits the core fields merged over the pass-through attributes.
func (r Record) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Extra)+5)
	for k, v := range r.Extra {
		m[k] = v
	}
	m[keyID] = r.ID
	m[keyPosition] = r.Position
	m[keyTeam] = r.Team
	m[keyPrice] = r.Price
	m[keyPredictedPoints] = r.PredictedPoints
	return json.Marshal(m)
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// number returns nil for absent or null values.
func number(v any) (*float64, error) {
	var (
		f   float64
		err error
	)
	switch t := v.(type) {
	case nil:
		return nil, nil //nolint:nilnil // absent
	case json.Number:
		f, err = t.Float64()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil //nolint:nilnil // absent
		}
		f, err = strconv.ParseFloat(s, 64)
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidNumber, v)
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNumber, v)
	}
	return &f, nil
}
