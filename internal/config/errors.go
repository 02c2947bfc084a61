package config

import "errors"

var (
	// ErrInvalidConfig wraps every out-of-range setting found by Validate.
	ErrInvalidConfig = errors.New("invalid config value")
	// ErrLoadConfig wraps failures reading the YAML file or the SQUADOPT_
	// environment.
	ErrLoadConfig = errors.New("cannot read config")
)
