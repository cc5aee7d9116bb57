// Package scheduler runs background jobs for the site: recurring jobs on a
// cron schedule and one-off jobs at a given time, on a small worker pool.
//
// Other modules depend on the "scheduler.provider" service:
//
//	id, err := sched.ScheduleRecurring("cache-warmup", "@every 30m", warm)
//	...
//	_ = sched.CancelJob(id)
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/digitalneighbour/sitekit"
)

// ModuleName is the unique identifier for the scheduler module.
const ModuleName = "scheduler"

// ServiceName is the name of the service provided by this module.
const ServiceName = "scheduler.provider"

// SchedulerModule owns a Scheduler and reports job lifecycle events to the
// application's observers.
type SchedulerModule struct {
	config    *SchedulerConfig
	logger    sitekit.Logger
	subject   sitekit.Subject
	scheduler *Scheduler
	jobStore  JobStore

	mu      sync.Mutex
	running bool
}

// NewModule creates a new instance of the scheduler module.
func NewModule() sitekit.Module {
	return &SchedulerModule{}
}

func (m *SchedulerModule) Name() string {
	return ModuleName
}

func (m *SchedulerModule) RegisterConfig(app sitekit.Application) error {
	app.RegisterConfigSection(ModuleName, sitekit.NewStdConfigProvider(&SchedulerConfig{}))
	return nil
}

func (m *SchedulerModule) Init(app sitekit.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return fmt.Errorf("failed to get config section '%s': %w", ModuleName, err)
	}
	m.config = cfg.GetConfig().(*SchedulerConfig)
	m.logger = app.Logger()
	if subject, ok := app.(sitekit.Subject); ok {
		m.subject = subject
	}

	m.jobStore = NewMemoryJobStore(m.config.MaxExecutions)
	m.scheduler = NewScheduler(
		m.jobStore,
		WithWorkerCount(m.config.WorkerCount),
		WithQueueSize(m.config.QueueSize),
		WithCheckInterval(m.config.CheckInterval),
		WithRetention(time.Duration(m.config.RetentionDays)*24*time.Hour),
		WithLogger(m.logger),
		WithEventFunc(m.onJobEvent),
	)

	m.emit(context.Background(), EventTypeConfigLoaded, map[string]any{
		"workerCount":   m.config.WorkerCount,
		"queueSize":     m.config.QueueSize,
		"checkInterval": m.config.CheckInterval.String(),
		"retentionDays": m.config.RetentionDays,
	})
	return nil
}

func (m *SchedulerModule) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}
	if err := m.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	m.running = true
	m.emit(ctx, EventTypeSchedulerStarted, map[string]any{"workers": m.config.WorkerCount})
	return nil
}

func (m *SchedulerModule) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return nil
	}
	stopCtx, cancel := context.WithTimeout(ctx, m.config.ShutdownTimeout)
	defer cancel()
	if err := m.scheduler.Stop(stopCtx); err != nil {
		return err
	}
	m.running = false
	m.emit(ctx, EventTypeSchedulerStopped, nil)
	return nil
}

func (m *SchedulerModule) ProvidesServices() []sitekit.ServiceProvider {
	return []sitekit.ServiceProvider{{
		Name:        ServiceName,
		Description: "Job scheduling service",
		Instance:    m,
	}}
}

func (m *SchedulerModule) RequiresServices() []sitekit.ServiceDependency {
	return nil
}

// ScheduleRecurring schedules jobFunc on a cron expression.
func (m *SchedulerModule) ScheduleRecurring(name, cronExpr string, jobFunc JobFunc) (string, error) {
	return m.scheduler.ScheduleRecurring(name, cronExpr, jobFunc)
}

// ScheduleOnce schedules jobFunc to run once at runAt.
func (m *SchedulerModule) ScheduleOnce(name string, runAt time.Time, jobFunc JobFunc) (string, error) {
	return m.scheduler.ScheduleOnce(name, runAt, jobFunc)
}

func (m *SchedulerModule) ScheduleJob(job Job) (string, error) {
	return m.scheduler.ScheduleJob(job)
}

func (m *SchedulerModule) CancelJob(jobID string) error {
	return m.scheduler.CancelJob(jobID)
}

func (m *SchedulerModule) TriggerJob(jobID string) error {
	return m.scheduler.TriggerJob(jobID)
}

func (m *SchedulerModule) GetJob(jobID string) (Job, error) {
	return m.scheduler.GetJob(jobID)
}

func (m *SchedulerModule) ListJobs() ([]Job, error) {
	return m.scheduler.ListJobs()
}

func (m *SchedulerModule) GetJobHistory(jobID string) ([]JobExecution, error) {
	return m.scheduler.GetJobHistory(jobID)
}

func (m *SchedulerModule) onJobEvent(eventType string, job Job, execution *JobExecution) {
	data := map[string]any{
		"jobId":   job.ID,
		"jobName": job.Name,
	}
	if job.Schedule != "" {
		data["schedule"] = job.Schedule
	}
	if execution != nil {
		data["executionId"] = execution.ID
		if !execution.EndTime.IsZero() {
			data["duration"] = execution.EndTime.Sub(execution.StartTime).String()
		}
		if execution.Error != "" {
			data["error"] = execution.Error
		}
	}
	m.emit(context.Background(), eventType, data)
}

func (m *SchedulerModule) emit(ctx context.Context, eventType string, data map[string]any) {
	err := sitekit.EmitEvent(ctx, m.subject, sitekit.NewCloudEvent(eventType, ModuleName, data, nil))
	if err != nil {
		sitekit.HandleEventEmissionError(err, m.logger, ModuleName, eventType)
	}
}
