package repository

import "errors"

// Sentinel kinds for player source errors.
var (
	ErrNotFound = errors.New("player file not found")
	ErrNoSource = errors.New("no player source given")
	ErrTooLarge = errors.New("player file too large")
)
