package scheduler

import "time"

// JobStore keeps job definitions and their execution history.
type JobStore interface {
	AddJob(job Job) error
	UpdateJob(job Job) error
	GetJob(jobID string) (Job, error)
	GetJobs() ([]Job, error)

	// GetDueJobs returns pending one-off jobs due at or before the given
	// time and marks them running so they are dispatched once.
	GetDueJobs(before time.Time) ([]Job, error)

	DeleteJob(jobID string) error

	AddJobExecution(execution JobExecution) error
	UpdateJobExecution(execution JobExecution) error

	// GetJobExecutions returns a job's executions, oldest first.
	GetJobExecutions(jobID string) ([]JobExecution, error)

	CleanupOldExecutions(before time.Time) error
}
