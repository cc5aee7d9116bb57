package cache

import "errors"

var (
	// ErrInvalidKey is returned for empty keys.
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrInvalidValue is returned when a value cannot be JSON-encoded.
	ErrInvalidValue = errors.New("invalid cache value")

	// ErrNotConnected is returned when an engine is used before Connect.
	ErrNotConnected = errors.New("cache not connected")

	// ErrInvalidConfig wraps configuration problems.
	ErrInvalidConfig = errors.New("invalid cache configuration")
)
