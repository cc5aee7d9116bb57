package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryJobStore_DueJobs(t *testing.T) {
	store := NewMemoryJobStore(0)
	now := time.Now()
	past, future := now.Add(-time.Minute), now.Add(time.Hour)

	require.NoError(t, store.AddJob(Job{ID: "due", Status: JobStatusPending, NextRun: &past}))
	require.NoError(t, store.AddJob(Job{ID: "later", Status: JobStatusPending, NextRun: &future}))
	require.NoError(t, store.AddJob(Job{ID: "cron", Status: JobStatusPending, IsRecurring: true, NextRun: &past}))
	assert.ErrorIs(t, store.AddJob(Job{ID: "due"}), ErrJobAlreadyExists)

	due, err := store.GetDueJobs(now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "due", due[0].ID)

	// Claimed jobs are not handed out twice.
	due, err = store.GetDueJobs(now)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestMemoryJobStore_ExecutionHistory(t *testing.T) {
	store := NewMemoryJobStore(2)
	start := time.Now().Add(-48 * time.Hour)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.AddJobExecution(JobExecution{
			ID:        id,
			JobID:     "job",
			StartTime: start.Add(time.Duration(i) * 24 * time.Hour),
			Status:    JobStatusRunning,
		}))
	}

	history, err := store.GetJobExecutions("job")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "b", history[0].ID)

	require.NoError(t, store.UpdateJobExecution(JobExecution{ID: "c", JobID: "job", StartTime: history[1].StartTime, Status: JobStatusCompleted}))
	assert.ErrorIs(t, store.UpdateJobExecution(JobExecution{ID: "a", JobID: "job"}), ErrJobNotFound)

	require.NoError(t, store.CleanupOldExecutions(time.Now().Add(-time.Hour)))
	history, err = store.GetJobExecutions("job")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, JobStatusCompleted, history[0].Status)
}
