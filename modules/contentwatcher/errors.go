package contentwatcher

import "errors"

var (
	// ErrInvalidConfig is returned by ContentWatcherConfig.Validate.
	ErrInvalidConfig = errors.New("invalid content watcher config")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("content watcher already started")
)
