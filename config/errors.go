package config

import "errors"

// ErrInvalidConfig indicates the configuration failed to load or validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")
