package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/feeders"
)

func newSchedulerApp(t *testing.T) *sitekit.StdApplication {
	t.Helper()
	app := sitekit.NewStdApplication(nil, nil)
	app.SetConfigFeeders([]sitekit.Feeder{feeders.NewEnvFeeder()})
	app.RegisterModule(NewModule())
	return app
}

func TestModule_Defaults(t *testing.T) {
	app := newSchedulerApp(t)
	require.NoError(t, app.Init())

	cfg, err := app.GetConfigSection(ModuleName)
	require.NoError(t, err)
	c := cfg.GetConfig().(*SchedulerConfig)
	assert.Equal(t, 2, c.WorkerCount)
	assert.Equal(t, 32, c.QueueSize)
	assert.Equal(t, 10*time.Second, c.ShutdownTimeout)
	assert.Equal(t, 100, c.MaxExecutions)
}

func TestModule_InvalidConfig(t *testing.T) {
	t.Setenv("SCHEDULER_WORKERS", "-1")
	app := newSchedulerApp(t)
	assert.ErrorIs(t, app.Init(), ErrInvalidConfig)
}

func TestModule_EmitsJobEvents(t *testing.T) {
	app := newSchedulerApp(t)

	completed := make(chan map[string]any, 1)
	require.NoError(t, app.RegisterObserver(sitekit.NewFunctionalObserver("test", func(_ context.Context, e sitekit.CloudEvent) error {
		var data map[string]any
		if err := e.DataAs(&data); err != nil {
			return err
		}
		completed <- data
		return nil
	}), EventTypeJobCompleted))

	require.NoError(t, app.Init())
	require.NoError(t, app.Start())
	defer app.Stop()

	var sched *SchedulerModule
	require.NoError(t, app.GetService(ServiceName, &sched))

	var runs atomic.Int32
	id, err := sched.ScheduleRecurring("warm", "@hourly", func(context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, sched.TriggerJob(id))

	select {
	case data := <-completed:
		assert.Equal(t, id, data["jobId"])
		assert.Equal(t, "warm", data["jobName"])
		assert.Equal(t, "@hourly", data["schedule"])
	case <-time.After(2 * time.Second):
		t.Fatal("no completion event")
	}
	assert.Equal(t, int32(1), runs.Load())

	jobs, err := sched.ListJobs()
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}
