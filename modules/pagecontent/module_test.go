package pagecontent

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/feeders"
	"github.com/digitalneighbour/sitekit/modules/cache"
	"github.com/digitalneighbour/sitekit/modules/catalog"
	"github.com/digitalneighbour/sitekit/modules/eventbus"
	"github.com/digitalneighbour/sitekit/modules/jsonschema"
	"github.com/digitalneighbour/sitekit/modules/locations"
	"github.com/digitalneighbour/sitekit/modules/scheduler"
)

// writeDataRoot copies testFS to a temp dir.
func writeDataRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for name, file := range testFS() {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, file.Data, 0o600))
	}
	return root
}

func newModuleApp(t *testing.T, extra ...sitekit.Module) *sitekit.StdApplication {
	t.Helper()
	app := sitekit.NewStdApplication(nil, nil)
	app.SetConfigFeeders([]sitekit.Feeder{feeders.NewEnvFeeder()})
	app.RegisterModule(locations.NewModule())
	app.RegisterModule(catalog.NewModule())
	app.RegisterModule(NewModule())
	for _, m := range extra {
		app.RegisterModule(m)
	}
	return app
}

func TestModule_ResolvesFromDataRoot(t *testing.T) {
	t.Setenv("PAGES_DATA_ROOT", writeDataRoot(t))

	app := newModuleApp(t, cache.NewModule())
	require.NoError(t, app.Init())
	require.NoError(t, app.Start())
	defer app.Stop()

	svc, err := ServiceFrom(app)
	require.NoError(t, err)

	page, err := svc.Page(context.Background(), catalog.SEO, seoSlug, "parnell")
	require.NoError(t, err)
	assert.Equal(t, []any{3.0}, page.Content["stats"])
	assert.Equal(t, "Book a call", page.Content["cta"].(map[string]any)["label"])

	var c *cache.CacheModule
	require.NoError(t, app.GetService(cache.ServiceName, &c))
	_, found := c.Get(context.Background(), CacheKeyPrefix+"/seo/search-engine-optimisation/parnell")
	assert.True(t, found)
}

func TestModule_WithoutCache(t *testing.T) {
	t.Setenv("PAGES_DATA_ROOT", writeDataRoot(t))
	t.Setenv("PAGES_DISABLE_PERSONALIZATION", "true")

	app := newModuleApp(t)
	require.NoError(t, app.Init())

	svc, err := ServiceFrom(app)
	require.NoError(t, err)
	assert.Nil(t, svc.cache)

	page, err := svc.Page(context.Background(), catalog.SEO, seoSlug, "parnell")
	require.NoError(t, err)
	hero := page.Content["hero"].(map[string]any)
	assert.Equal(t, "Search Engine Optimisation", hero["heading"])
}

func TestModule_FragmentSchema(t *testing.T) {
	root := writeDataRoot(t)
	schemaPath := filepath.Join(t.TempDir(), "fragment.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`{
		"type": "object",
		"properties": {"stats": {"type": "array", "maxItems": 1}}
	}`), 0o600))
	t.Setenv("PAGES_DATA_ROOT", root)
	t.Setenv("PAGES_FRAGMENT_SCHEMA", schemaPath)

	app := newModuleApp(t, jsonschema.NewModule())
	require.NoError(t, app.Init())

	svc, err := ServiceFrom(app)
	require.NoError(t, err)

	// The Auckland fragment has two stats and is skipped.
	page, err := svc.Page(context.Background(), catalog.SEO, seoSlug, "auckland")
	require.NoError(t, err)
	assert.Nil(t, page.Content["stats"])
	assert.Equal(t, []string{"_defaults/seo/search-engine-optimisation.json"}, page.Fragments)
}

func TestModule_FragmentSchemaNeedsValidator(t *testing.T) {
	t.Setenv("PAGES_FRAGMENT_SCHEMA", "fragment.json")

	app := newModuleApp(t)
	assert.ErrorIs(t, app.Init(), ErrInvalidConfig)
}

func TestModule_RequiresCatalog(t *testing.T) {
	app := sitekit.NewStdApplication(nil, nil)
	app.SetConfigFeeders([]sitekit.Feeder{})
	app.RegisterModule(NewModule())
	assert.ErrorIs(t, app.Init(), sitekit.ErrRequiredServiceNotFound)
}

func TestTrimKeyPrefix(t *testing.T) {
	assert.Equal(t, "/seo/", trimKeyPrefix("page:/seo/"))
	assert.Equal(t, "/seo/", trimKeyPrefix("/seo/"))
}

func TestModule_InvalidationOverEventBus(t *testing.T) {
	t.Setenv("PAGES_DATA_ROOT", writeDataRoot(t))

	app := newModuleApp(t, cache.NewModule(), eventbus.NewModule(), scheduler.NewModule())
	require.NoError(t, app.Init())
	require.NoError(t, app.Start())
	defer app.Stop()

	svc, err := ServiceFrom(app)
	require.NoError(t, err)
	ctx := context.Background()
	_, err = svc.Page(ctx, catalog.SEO, seoSlug, "parnell")
	require.NoError(t, err)

	var c *cache.CacheModule
	require.NoError(t, app.GetService(cache.ServiceName, &c))
	key := CacheKeyPrefix + "/seo/search-engine-optimisation/parnell"
	_, found := c.Get(ctx, key)
	require.True(t, found)

	var bus *eventbus.EventBusModule
	require.NoError(t, app.GetService(eventbus.ServiceName, &bus))
	require.NoError(t, bus.Publish(ctx, cache.TopicInvalidate, cache.Invalidation{
		Prefixes: []string{CacheKeyPrefix + "/seo/"},
		Source:   "test",
	}))

	assert.Eventually(t, func() bool {
		_, found := c.Get(ctx, key)
		return !found
	}, 2*time.Second, 10*time.Millisecond)
}

func TestModule_ScheduledWarmup(t *testing.T) {
	t.Setenv("PAGES_DATA_ROOT", writeDataRoot(t))

	app := newModuleApp(t, cache.NewModule(), scheduler.NewModule())
	require.NoError(t, app.Init())
	require.NoError(t, app.Start())

	var sched *scheduler.SchedulerModule
	require.NoError(t, app.GetService(scheduler.ServiceName, &sched))
	jobs, err := sched.ListJobs()
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, WarmupJobName, jobs[0].Name)
	assert.Equal(t, "@every 30m", jobs[0].Schedule)

	require.NoError(t, sched.TriggerJob(jobs[0].ID))

	var c *cache.CacheModule
	require.NoError(t, app.GetService(cache.ServiceName, &c))
	assert.Eventually(t, func() bool {
		_, found := c.Get(context.Background(), CacheKeyPrefix+"/seo/search-engine-optimisation/parnell")
		return found
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, app.Stop())
	job, err := sched.GetJob(jobs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, scheduler.JobStatusCancelled, job.Status)
}

func TestModule_ExactKeyInvalidation(t *testing.T) {
	t.Setenv("PAGES_DATA_ROOT", writeDataRoot(t))

	app := newModuleApp(t, cache.NewModule(), eventbus.NewModule(), scheduler.NewModule())
	require.NoError(t, app.Init())
	require.NoError(t, app.Start())
	defer app.Stop()

	svc, err := ServiceFrom(app)
	require.NoError(t, err)
	ctx := context.Background()
	for _, loc := range []string{"parnell", "auckland"} {
		_, err = svc.Page(ctx, catalog.SEO, seoSlug, loc)
		require.NoError(t, err)
	}

	var c *cache.CacheModule
	require.NoError(t, app.GetService(cache.ServiceName, &c))
	evicted := CacheKeyPrefix + "/seo/search-engine-optimisation/parnell"
	kept := CacheKeyPrefix + "/seo/search-engine-optimisation/auckland"

	var bus *eventbus.EventBusModule
	require.NoError(t, app.GetService(eventbus.ServiceName, &bus))
	require.NoError(t, bus.Publish(ctx, cache.TopicInvalidate, cache.Invalidation{
		Keys:   []string{evicted},
		Source: "test",
	}))

	assert.Eventually(t, func() bool {
		_, found := c.Get(ctx, evicted)
		return !found
	}, 2*time.Second, 10*time.Millisecond)
	_, found := c.Get(ctx, kept)
	assert.True(t, found)
}
