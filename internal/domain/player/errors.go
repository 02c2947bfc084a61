package player

import "errors"

// Sentinel errors for player record validation and decoding.
var (
	ErrMissingID      = errors.New("player id is required")
	ErrNegativePrice  = errors.New("player price must not be negative")
	ErrInvalidNumber  = errors.New("invalid numeric field")
	ErrNotAnObject    = errors.New("player record must be a JSON object")
	ErrMalformedInput = errors.New("player input must be a JSON array")
)
