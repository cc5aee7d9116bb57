package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryJobStore keeps jobs and executions in process memory. Each job
// keeps at most maxExecutions records, newest last.
type MemoryJobStore struct {
	mu            sync.RWMutex
	jobs          map[string]Job
	executions    map[string][]JobExecution
	maxExecutions int
}

// NewMemoryJobStore creates a store. maxExecutions <= 0 keeps every record
// until CleanupOldExecutions removes it.
func NewMemoryJobStore(maxExecutions int) *MemoryJobStore {
	return &MemoryJobStore{
		jobs:          make(map[string]Job),
		executions:    make(map[string][]JobExecution),
		maxExecutions: maxExecutions,
	}
}

func (s *MemoryJobStore) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, job.ID)
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *MemoryJobStore) UpdateJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, job.ID)
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *MemoryJobStore) GetJob(jobID string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return job, nil
}

// GetJobs returns every job ordered by creation time.
func (s *MemoryJobStore) GetJobs() ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs, nil
}

func (s *MemoryJobStore) GetDueJobs(before time.Time) ([]Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []Job
	for id, job := range s.jobs {
		if job.IsRecurring || job.Status != JobStatusPending || job.NextRun == nil || job.NextRun.After(before) {
			continue
		}
		job.Status = JobStatusRunning
		job.UpdatedAt = time.Now()
		s.jobs[id] = job
		due = append(due, job)
	}
	return due, nil
}

func (s *MemoryJobStore) DeleteJob(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[jobID]; !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	delete(s.jobs, jobID)
	delete(s.executions, jobID)
	return nil
}

func (s *MemoryJobStore) AddJobExecution(execution JobExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := append(s.executions[execution.JobID], execution)
	if s.maxExecutions > 0 && len(history) > s.maxExecutions {
		history = history[len(history)-s.maxExecutions:]
	}
	s.executions[execution.JobID] = history
	return nil
}

func (s *MemoryJobStore) UpdateJobExecution(execution JobExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.executions[execution.JobID]
	for i := range history {
		if history[i].ID == execution.ID {
			history[i] = execution
			return nil
		}
	}
	return fmt.Errorf("%w: execution %s of job %s", ErrJobNotFound, execution.ID, execution.JobID)
}

func (s *MemoryJobStore) GetJobExecutions(jobID string) ([]JobExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]JobExecution{}, s.executions[jobID]...), nil
}

// CleanupOldExecutions drops executions that started before the cutoff.
func (s *MemoryJobStore) CleanupOldExecutions(before time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for jobID, history := range s.executions {
		kept := history[:0]
		for _, exec := range history {
			if !exec.StartTime.Before(before) {
				kept = append(kept, exec)
			}
		}
		s.executions[jobID] = kept
	}
	return nil
}
