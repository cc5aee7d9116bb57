package scheduler

import "errors"

var (
	ErrJobAlreadyExists = errors.New("job already exists")
	ErrJobNotFound      = errors.New("job not found")
	ErrJobInvalid       = errors.New("invalid job")
	ErrJobRunning       = errors.New("job is already running")
	ErrJobCancelled     = errors.New("job is cancelled")
	ErrSchedulerStopped = errors.New("scheduler is not running")
	ErrShutdownTimeout  = errors.New("scheduler shutdown timed out")
	ErrInvalidConfig    = errors.New("invalid scheduler configuration")
)
