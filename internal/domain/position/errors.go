package position

import "errors"

// ErrUnknownPosition is returned when encoding a value outside the catalog.
var ErrUnknownPosition = errors.New("unknown position")
