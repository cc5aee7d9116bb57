package scheduler

// Event types emitted by the scheduler module.
const (
	EventTypeConfigLoaded = "com.sitekit.scheduler.config.loaded"

	EventTypeJobScheduled = "com.sitekit.scheduler.job.scheduled"
	EventTypeJobStarted   = "com.sitekit.scheduler.job.started"
	EventTypeJobCompleted = "com.sitekit.scheduler.job.completed"
	EventTypeJobFailed    = "com.sitekit.scheduler.job.failed"
	EventTypeJobCancelled = "com.sitekit.scheduler.job.cancelled"

	EventTypeSchedulerStarted = "com.sitekit.scheduler.started"
	EventTypeSchedulerStopped = "com.sitekit.scheduler.stopped"
)
