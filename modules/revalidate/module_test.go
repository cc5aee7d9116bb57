package revalidate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/feeders"
	"github.com/digitalneighbour/sitekit/modules/cache"
	"github.com/digitalneighbour/sitekit/modules/chimux"
	"github.com/digitalneighbour/sitekit/modules/eventbus"
)

func TestModule_WebhookInvalidatesAndPublishes(t *testing.T) {
	t.Setenv("SANITY_REVALIDATE_SECRET", "s3cret")
	app := sitekit.NewStdApplication(nil, nil)
	app.SetConfigFeeders([]sitekit.Feeder{feeders.NewEnvFeeder()})
	app.RegisterModule(chimux.NewChiMuxModule())
	app.RegisterModule(cache.NewModule())
	app.RegisterModule(eventbus.NewModule())
	app.RegisterModule(NewModule())
	require.NoError(t, app.Init())
	require.NoError(t, app.Start())
	defer app.Stop()

	ctx := context.Background()
	var c *cache.CacheModule
	require.NoError(t, app.GetService(cache.ServiceName, &c))
	require.NoError(t, c.Set(ctx, "page:/seo/local-seo/parnell", "cached", time.Minute))
	require.NoError(t, c.Set(ctx, "page:/web-development/wordpress/auckland", "cached", time.Minute))

	var bus *eventbus.EventBusModule
	require.NoError(t, app.GetService(eventbus.ServiceName, &bus))
	received := make(chan cache.Invalidation, 1)
	_, err := bus.Subscribe(ctx, cache.TopicInvalidate, func(_ context.Context, e eventbus.Event) error {
		inv, err := cache.DecodeInvalidation(e.Payload)
		if err == nil {
			received <- inv
		}
		return err
	})
	require.NoError(t, err)

	var mux *chimux.ChiMuxModule
	require.NoError(t, app.GetService(chimux.ServiceName, &mux))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/revalidate?secret=s3cret",
		strings.NewReader(`{"_type":"seoPage","slug":{"current":"local-seo"}}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, found := c.Get(ctx, "page:/seo/local-seo/parnell")
	assert.False(t, found)
	_, found = c.Get(ctx, "page:/web-development/wordpress/auckland")
	assert.True(t, found)

	select {
	case inv := <-received:
		assert.Equal(t, []string{"page:/seo", "page:/seo/local-seo"}, inv.Prefixes)
		assert.Equal(t, ModuleName, inv.Source)
	case <-time.After(2 * time.Second):
		t.Fatal("invalidation was not published")
	}

	var rv *Revalidator
	require.NoError(t, app.GetService(ServiceName, &rv))
	assert.NotNil(t, rv)
}

func TestModule_InvalidConfig(t *testing.T) {
	t.Setenv("REVALIDATE_PATH", "api/revalidate")
	app := sitekit.NewStdApplication(nil, nil)
	app.SetConfigFeeders([]sitekit.Feeder{feeders.NewEnvFeeder()})
	app.RegisterModule(NewModule())
	assert.ErrorIs(t, app.Init(), ErrInvalidConfig)
}
