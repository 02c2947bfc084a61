package player

import (
	"encoding/json"
	"fmt"
)

// Rejection records why an input element was not accepted.
type Rejection struct {
	Index int
	Err   error
}

// Batch is the outcome of decoding a player list.
type Batch struct {
	Records  []Record
	Rejected []Rejection
}

// Decode parses a JSON array of player records. Elements that fail to decode
// or validate are reported in Rejected; the error is reserved for input that
// is not an array at all.
func Decode(data []byte) (Batch, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return Batch{}, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}

	b := Batch{Records: make([]Record, 0, len(elems))}
	for i, elem := range elems {
		var r Record
		if err := json.Unmarshal(elem, &r); err != nil {
			b.Rejected = append(b.Rejected, Rejection{Index: i, Err: err})
			continue
		}
		if err := r.Validate(); err != nil {
			b.Rejected = append(b.Rejected, Rejection{Index: i, Err: err})
			continue
		}
		b.Records = append(b.Records, r)
	}
	return b, nil
}

// IDs returns the record ids in order.
func IDs(records []Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

// TotalPoints sums predicted points.
func TotalPoints(records []Record) float64 {
	var s float64
	for _, r := range records {
		s += r.PredictedPoints
	}
	return s
}

// TotalPrice sums prices.
func TotalPrice(records []Record) float64 {
	var s float64
	for _, r := range records {
		s += r.Price
	}
	return s
}
