package scheduler

import (
	"fmt"
	"time"
)

// SchedulerConfig defines the configuration for the scheduler module
type SchedulerConfig struct {
	// WorkerCount is the number of worker goroutines to run
	WorkerCount int `json:"workerCount" yaml:"workerCount" toml:"workerCount" env:"SCHEDULER_WORKERS" default:"2" desc:"Job worker goroutines"`

	// QueueSize is the maximum number of jobs to queue
	QueueSize int `json:"queueSize" yaml:"queueSize" toml:"queueSize" env:"SCHEDULER_QUEUE_SIZE" default:"32" desc:"Job queue capacity"`

	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout" toml:"shutdownTimeout" env:"SCHEDULER_SHUTDOWN_TIMEOUT" default:"10s" desc:"Wait for running jobs on shutdown"`

	// CheckInterval is how often one-off jobs are checked
	CheckInterval time.Duration `json:"checkInterval" yaml:"checkInterval" toml:"checkInterval" env:"SCHEDULER_CHECK_INTERVAL" default:"1s" desc:"Poll interval for one-off jobs"`

	// RetentionDays is how many days to retain job history
	RetentionDays int `json:"retentionDays" yaml:"retentionDays" toml:"retentionDays" env:"SCHEDULER_RETENTION_DAYS" default:"7" desc:"Days of job history to keep"`

	// MaxExecutions caps the history kept per job.
	MaxExecutions int `json:"maxExecutions" yaml:"maxExecutions" toml:"maxExecutions" env:"SCHEDULER_MAX_EXECUTIONS" default:"100" desc:"Executions kept per job"`
}

func (c *SchedulerConfig) Validate() error {
	if c.WorkerCount < 1 || c.QueueSize < 1 {
		return fmt.Errorf("%w: worker count and queue size must be at least 1", ErrInvalidConfig)
	}
	if c.CheckInterval <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: check interval and shutdown timeout must be positive", ErrInvalidConfig)
	}
	if c.RetentionDays < 0 || c.MaxExecutions < 0 {
		return fmt.Errorf("%w: retention must not be negative", ErrInvalidConfig)
	}
	return nil
}
