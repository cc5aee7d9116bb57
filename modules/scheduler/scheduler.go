package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/digitalneighbour/sitekit"
)

// JobFunc defines a function that can be executed as a job
type JobFunc func(ctx context.Context) error

// JobExecution records one run of a job.
type JobExecution struct {
	ID        string    `json:"id"`
	JobID     string    `json:"jobId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime,omitempty"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// Job is a one-off job (RunAt) or a recurring one (Schedule).
type Job struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Schedule    string     `json:"schedule,omitempty"`
	RunAt       time.Time  `json:"runAt,omitempty"`
	IsRecurring bool       `json:"isRecurring"`
	JobFunc     JobFunc    `json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Status      JobStatus  `json:"status"`
	LastRun     *time.Time `json:"lastRun,omitempty"`
	NextRun     *time.Time `json:"nextRun,omitempty"`
}

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// EventFunc is told about job lifecycle changes. execution is nil for
// events that are not about a run.
type EventFunc func(eventType string, job Job, execution *JobExecution)

// Scheduler runs jobs on a worker pool. Recurring jobs are timed by cron;
// one-off jobs are picked up by a dispatcher polling the store. A job never
// runs twice at the same time.
type Scheduler struct {
	jobStore      JobStore
	workerCount   int
	queueSize     int
	checkInterval time.Duration
	retention     time.Duration
	logger        sitekit.Logger
	onEvent       EventFunc

	cron *cron.Cron

	mu       sync.Mutex
	entries  map[string]cron.EntryID
	running  map[string]bool
	jobQueue chan Job
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	started  bool
}

// SchedulerOption defines a function that can configure a scheduler
type SchedulerOption func(*Scheduler)

// WithWorkerCount sets the number of workers
func WithWorkerCount(count int) SchedulerOption {
	return func(s *Scheduler) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the job queue size
func WithQueueSize(size int) SchedulerOption {
	return func(s *Scheduler) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithCheckInterval sets how often one-off jobs are checked
func WithCheckInterval(interval time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if interval > 0 {
			s.checkInterval = interval
		}
	}
}

// WithRetention drops execution records older than d.
func WithRetention(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.retention = d
	}
}

func WithLogger(logger sitekit.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithEventFunc(fn EventFunc) SchedulerOption {
	return func(s *Scheduler) {
		s.onEvent = fn
	}
}

// NewScheduler creates a new scheduler
func NewScheduler(jobStore JobStore, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		jobStore:      jobStore,
		workerCount:   2,
		queueSize:     32,
		checkInterval: time.Second,
		logger:        sitekit.NopLogger{},
		onEvent:       func(string, Job, *JobExecution) {},
		entries:       make(map[string]cron.EntryID),
		running:       make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.onEvent == nil {
		s.onEvent = func(string, Job, *JobExecution) {}
	}
	s.cron = cron.New()
	return s
}

// Start launches the workers, the dispatcher and cron, registering every
// recurring job scheduled so far.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	s.logger.Info("Starting scheduler", "workers", s.workerCount, "queueSize", s.queueSize)
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.jobQueue = make(chan Job, s.queueSize)

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	s.wg.Add(1)
	go s.dispatchPendingJobs()

	jobs, err := s.jobStore.GetJobs()
	if err != nil {
		s.cancel()
		return fmt.Errorf("load jobs: %w", err)
	}
	for _, job := range jobs {
		if job.IsRecurring && job.Status != JobStatusCancelled {
			if err := s.registerWithCron(job); err != nil {
				s.logger.Error("Failed to register job with cron", "id", job.ID, "name", job.Name, "error", err)
			}
		}
	}
	s.cron.Start()
	s.started = true
	return nil
}

// Stop halts cron and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	for id, entryID := range s.entries {
		s.cron.Remove(entryID)
		delete(s.entries, id)
	}
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler shutdown timed out")
		return ErrShutdownTimeout
	}
}

// ScheduleJob validates and stores job. Recurring jobs need a cron
// expression (standard five fields or a descriptor such as "@every 30m");
// one-off jobs need RunAt.
func (s *Scheduler) ScheduleJob(job Job) (string, error) {
	if job.JobFunc == nil {
		return "", fmt.Errorf("%w: job %q has no function", ErrJobInvalid, job.Name)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	job.Status = JobStatusPending

	if job.IsRecurring {
		schedule, err := cron.ParseStandard(job.Schedule)
		if err != nil {
			return "", fmt.Errorf("%w: invalid cron expression %q: %w", ErrJobInvalid, job.Schedule, err)
		}
		next := schedule.Next(now)
		job.NextRun = &next
	} else {
		if job.RunAt.IsZero() {
			return "", fmt.Errorf("%w: job %q needs RunAt or a recurring schedule", ErrJobInvalid, job.Name)
		}
		runAt := job.RunAt
		job.NextRun = &runAt
	}

	if err := s.jobStore.AddJob(job); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if job.IsRecurring && s.started {
		if err := s.registerWithCron(job); err != nil {
			_ = s.jobStore.DeleteJob(job.ID)
			return "", err
		}
	}
	s.logger.Debug("Scheduled job", "id", job.ID, "name", job.Name, "nextRun", job.NextRun)
	s.onEvent(EventTypeJobScheduled, job, nil)
	return job.ID, nil
}

// ScheduleRecurring schedules a recurring job using a cron expression
func (s *Scheduler) ScheduleRecurring(name, cronExpr string, jobFunc JobFunc) (string, error) {
	return s.ScheduleJob(Job{Name: name, Schedule: cronExpr, IsRecurring: true, JobFunc: jobFunc})
}

// ScheduleOnce schedules jobFunc to run once at runAt.
func (s *Scheduler) ScheduleOnce(name string, runAt time.Time, jobFunc JobFunc) (string, error) {
	return s.ScheduleJob(Job{Name: name, RunAt: runAt, JobFunc: jobFunc})
}

// registerWithCron must be called with s.mu held.
func (s *Scheduler) registerWithCron(job Job) error {
	if entryID, exists := s.entries[job.ID]; exists {
		s.cron.Remove(entryID)
	}
	jobID := job.ID
	entryID, err := s.cron.AddFunc(job.Schedule, func() { s.enqueue(jobID) })
	if err != nil {
		return fmt.Errorf("%w: %w", ErrJobInvalid, err)
	}
	s.entries[job.ID] = entryID
	return nil
}

func (s *Scheduler) enqueue(jobID string) {
	job, err := s.jobStore.GetJob(jobID)
	if err != nil {
		s.logger.Error("Failed to retrieve job for execution", "id", jobID, "error", err)
		return
	}
	if job.Status == JobStatusCancelled {
		return
	}
	select {
	case s.jobQueue <- job:
	default:
		s.logger.Warn("Job queue is full, skipping run", "id", job.ID, "name", job.Name)
	}
}

// TriggerJob queues a run of jobID now, outside its schedule.
func (s *Scheduler) TriggerJob(jobID string) error {
	job, err := s.jobStore.GetJob(jobID)
	if err != nil {
		return err
	}
	if job.Status == JobStatusCancelled {
		return fmt.Errorf("%w: %s", ErrJobCancelled, jobID)
	}

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return ErrSchedulerStopped
	}
	select {
	case s.jobQueue <- job:
		return nil
	case <-s.ctx.Done():
		return ErrSchedulerStopped
	}
}

// CancelJob stops future runs of a job. A run in progress finishes.
func (s *Scheduler) CancelJob(jobID string) error {
	job, err := s.jobStore.GetJob(jobID)
	if err != nil {
		return err
	}
	job.Status = JobStatusCancelled
	job.UpdatedAt = time.Now()
	job.NextRun = nil
	if err := s.jobStore.UpdateJob(job); err != nil {
		return err
	}

	s.mu.Lock()
	if entryID, exists := s.entries[jobID]; exists {
		s.cron.Remove(entryID)
		delete(s.entries, jobID)
	}
	s.mu.Unlock()

	s.onEvent(EventTypeJobCancelled, job, nil)
	return nil
}

// GetJob returns information about a scheduled job
func (s *Scheduler) GetJob(jobID string) (Job, error) {
	return s.jobStore.GetJob(jobID)
}

// ListJobs returns a list of all scheduled jobs
func (s *Scheduler) ListJobs() ([]Job, error) {
	return s.jobStore.GetJobs()
}

// GetJobHistory returns the execution history for a job
func (s *Scheduler) GetJobHistory(jobID string) ([]JobExecution, error) {
	return s.jobStore.GetJobExecutions(jobID)
}

func (s *Scheduler) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case job := <-s.jobQueue:
			s.executeJob(job)
		}
	}
}

func (s *Scheduler) executeJob(job Job) {
	s.mu.Lock()
	if s.running[job.ID] {
		s.mu.Unlock()
		s.logger.Warn("Job still running, skipping run", "id", job.ID, "name", job.Name)
		return
	}
	s.running[job.ID] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.running, job.ID)
		s.mu.Unlock()
	}()

	execution := JobExecution{
		ID:        uuid.NewString(),
		JobID:     job.ID,
		StartTime: time.Now(),
		Status:    JobStatusRunning,
	}
	_ = s.jobStore.AddJobExecution(execution)
	job.Status = JobStatusRunning
	job.UpdatedAt = execution.StartTime
	_ = s.jobStore.UpdateJob(job)
	s.onEvent(EventTypeJobStarted, job, &execution)
	s.logger.Debug("Executing job", "id", job.ID, "name", job.Name)

	err := runJob(s.ctx, job.JobFunc)

	execution.EndTime = time.Now()
	if err != nil {
		execution.Status = JobStatusFailed
		execution.Error = err.Error()
		s.logger.Error("Job execution failed", "id", job.ID, "name", job.Name, "error", err)
	} else {
		execution.Status = JobStatusCompleted
	}
	_ = s.jobStore.UpdateJobExecution(execution)

	// Re-read the job: it may have been cancelled while running.
	current, getErr := s.jobStore.GetJob(job.ID)
	if getErr != nil {
		return
	}
	current.LastRun = &execution.EndTime
	current.UpdatedAt = execution.EndTime
	switch {
	case current.Status == JobStatusCancelled:
	case current.IsRecurring:
		current.Status = JobStatusPending
		if schedule, err := cron.ParseStandard(current.Schedule); err == nil {
			next := schedule.Next(execution.EndTime)
			current.NextRun = &next
		}
	default:
		current.Status = execution.Status
		current.NextRun = nil
	}
	_ = s.jobStore.UpdateJob(current)

	if err != nil {
		s.onEvent(EventTypeJobFailed, current, &execution)
	} else {
		s.onEvent(EventTypeJobCompleted, current, &execution)
	}
}

// runJob turns a job panic into an error.
func runJob(ctx context.Context, fn JobFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return fn(ctx)
}

// dispatchPendingJobs queues due one-off jobs and prunes old executions.
func (s *Scheduler) dispatchPendingJobs() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()
	lastCleanup := time.Now()

	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			s.checkAndDispatchJobs(now)
			if s.retention > 0 && now.Sub(lastCleanup) >= time.Hour {
				if err := s.jobStore.CleanupOldExecutions(now.Add(-s.retention)); err != nil {
					s.logger.Warn("Failed to clean up job history", "error", err)
				}
				lastCleanup = now
			}
		}
	}
}

func (s *Scheduler) checkAndDispatchJobs(now time.Time) {
	due, err := s.jobStore.GetDueJobs(now)
	if err != nil {
		s.logger.Error("Failed to get due jobs", "error", err)
		return
	}
	for _, job := range due {
		select {
		case s.jobQueue <- job:
		default:
			// Retry on the next tick.
			job.Status = JobStatusPending
			_ = s.jobStore.UpdateJob(job)
			s.logger.Warn("Job queue is full, job execution delayed", "id", job.ID, "name", job.Name)
		}
	}
}
