package registry

import "errors"

// Common registry errors
var (
	ErrNotFound  = errors.New("metadata not found")
	ErrMalformed = errors.New("metadata is not a valid JSON object")

	ErrInvalidFilter = errors.New("invalid chain filter")
)
