package eventlogger

import "errors"

var (
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidConfig    = errors.New("invalid event logger configuration")
	ErrLoggerNotStarted = errors.New("event logger not started")
	ErrEventBufferFull  = errors.New("event buffer is full")
	ErrFileNotOpen      = errors.New("file not open")
)
