package sitekit

import (
	"context"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalneighbour/sitekit/feeders"
)

func TestNewApplication(t *testing.T) {
	t.Run("requires a logger", func(t *testing.T) {
		_, err := NewApplication()
		assert.ErrorIs(t, err, ErrLoggerNotSet)
	})

	t.Run("modules, feeders and observers", func(t *testing.T) {
		t.Setenv("SITEKIT_TEST_TOKEN", "from-env")
		got := &eventRecorder{}
		cfg := &serverSection{}
		logger := NopLogger{}

		app, err := NewApplication(
			WithLogger(logger),
			WithConfigFeeders(feeders.NewEnvFeeder()),
			WithModules(&configModule{section: "server", cfg: cfg}, &testModule{name: "extra", log: &callLog{}}),
			WithObserver("registered", got.handler, EventTypeModuleRegistered),
		)
		require.NoError(t, err)
		assert.Equal(t, logger, app.Logger())
		assert.NotNil(t, app.ConfigProvider())

		require.NoError(t, app.Init())
		assert.Equal(t, "from-env", cfg.Token)
		assert.Eventually(t, func() bool { return len(got.types()) == 2 }, time.Second, 10*time.Millisecond)
	})

	t.Run("main config provider is fed", func(t *testing.T) {
		t.Setenv("SITEKIT_TEST_HOST", "main.example")
		t.Setenv("SITEKIT_TEST_TOKEN", "t")
		main := &serverSection{}
		app, err := NewApplication(
			WithLogger(NopLogger{}),
			WithConfigProvider(NewStdConfigProvider(main)),
			WithConfigFeeders(feeders.NewEnvFeeder()),
		)
		require.NoError(t, err)
		require.NoError(t, app.Init())
		assert.Equal(t, "main.example", main.Host)
		assert.Equal(t, 8080, main.Port)
	})
}

func TestWithObserver_AllEvents(t *testing.T) {
	done := make(chan struct{}, 8)
	fn := ObserverFunc(func(context.Context, cloudevents.Event) error {
		done <- struct{}{}
		return nil
	})
	app, err := NewApplication(WithLogger(NopLogger{}), WithObserver("any", fn))
	require.NoError(t, err)

	require.NoError(t, app.RegisterService("x", 1))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("observer registered without event types saw nothing")
	}
}
