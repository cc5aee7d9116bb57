package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/feeders"
)

func TestModule_DefaultsToMemory(t *testing.T) {
	app := sitekit.NewStdApplication(nil, nil)
	app.SetConfigFeeders([]sitekit.Feeder{})
	app.RegisterModule(NewModule())
	require.NoError(t, app.Init())

	var m *CacheModule
	require.NoError(t, app.GetService(ServiceName, &m))
	assert.Equal(t, EngineMemory, m.config.Engine)
	assert.Equal(t, 5*time.Minute, m.config.DefaultTTL)
	assert.Equal(t, 10000, m.config.MaxItems)
	assert.Equal(t, "sitekit:", m.config.KeyPrefix)
	assert.IsType(t, &MemoryCache{}, m.cacheEngine)

	require.NoError(t, app.Start())
	defer app.Stop()

	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "k", "v", 0))
	value, found := m.Get(ctx, "k")
	require.True(t, found)
	assert.Equal(t, "v", value)
}

func TestModule_RedisFromEnv(t *testing.T) {
	s := miniredis.RunT(t)
	t.Setenv("CACHE_ENGINE", "redis")
	t.Setenv("REDIS_URL", "redis://"+s.Addr())
	t.Setenv("CACHE_DEFAULT_TTL", "90s")

	app := sitekit.NewStdApplication(nil, nil)
	app.SetConfigFeeders([]sitekit.Feeder{feeders.NewEnvFeeder()})
	app.RegisterModule(NewModule())
	require.NoError(t, app.Init())
	require.NoError(t, app.Start())
	defer app.Stop()

	var m *CacheModule
	require.NoError(t, app.GetService(ServiceName, &m))
	assert.IsType(t, &RedisCache{}, m.cacheEngine)

	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "page:/seo", "cached", 0))
	assert.Equal(t, 90*time.Second, s.TTL("sitekit:page:/seo"))

	n, err := m.DeletePrefix(ctx, "page:")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestModule_InvalidRedisConfigFailsInit(t *testing.T) {
	t.Setenv("CACHE_ENGINE", "redis")
	t.Setenv("REDIS_URL", "")

	app := sitekit.NewStdApplication(nil, nil)
	app.SetConfigFeeders([]sitekit.Feeder{feeders.NewEnvFeeder()})
	app.RegisterModule(NewModule())
	err := app.Init()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestModule_StartFailsWhenRedisIsDown(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	t.Setenv("CACHE_ENGINE", "redis")
	t.Setenv("REDIS_URL", "redis://"+addr)

	app := sitekit.NewStdApplication(nil, nil)
	app.SetConfigFeeders([]sitekit.Feeder{feeders.NewEnvFeeder()})
	app.RegisterModule(NewModule())
	require.NoError(t, app.Init())
	assert.Error(t, app.Start())
}
