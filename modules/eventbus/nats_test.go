package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/feeders"
)

func runNATS(t *testing.T) *server.Server {
	t.Helper()
	ns, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1, NoLog: true, NoSigs: true})
	require.NoError(t, err)
	go ns.Start()
	require.True(t, ns.ReadyForConnections(5*time.Second), "embedded NATS server did not start")
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return ns
}

func natsConfig(url string) *EventBusConfig {
	cfg := testConfig()
	cfg.Engine = EngineNATS
	cfg.NATSURL = url
	cfg.SubjectPrefix = "test."
	cfg.ConnectTimeout = 2 * time.Second
	return cfg
}

func startedNatsBus(t *testing.T, url string) *NatsEventBus {
	t.Helper()
	bus := NewNatsEventBus(natsConfig(url), nil, nil)
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })
	return bus
}

func TestNatsEventBus_AcrossInstances(t *testing.T) {
	ns := runNATS(t)
	publisher := startedNatsBus(t, ns.ClientURL())
	receiver := startedNatsBus(t, ns.ClientURL())
	ctx := context.Background()

	received := make(chan Event, 1)
	_, err := receiver.Subscribe(ctx, "sitekit.invalidate", func(_ context.Context, e Event) error {
		received <- e
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, publisher.Publish(ctx, Event{
		Topic:    "sitekit.invalidate",
		Payload:  map[string]any{"prefixes": []string{"page:/seo/"}},
		Metadata: map[string]any{"source": "a"},
	}))

	select {
	case e := <-received:
		assert.Equal(t, "sitekit.invalidate", e.Topic)
		assert.Equal(t, map[string]any{"prefixes": []any{"page:/seo/"}}, e.Payload)
		assert.Equal(t, "a", e.Metadata["source"])
		assert.False(t, e.CreatedAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}
}

func TestNatsEventBus_WildcardsAndCancel(t *testing.T) {
	ns := runNATS(t)
	bus := startedNatsBus(t, ns.ClientURL())
	ctx := context.Background()

	c := &collector{}
	sub, err := bus.SubscribeAsync(ctx, "sitekit.>", c.handle)
	require.NoError(t, err)
	assert.True(t, sub.IsAsync())
	assert.Equal(t, []string{"sitekit.>"}, bus.Topics())
	assert.Equal(t, 1, bus.SubscriberCount("sitekit.>"))

	require.NoError(t, bus.Publish(ctx, Event{Topic: "sitekit.invalidate"}))
	require.NoError(t, bus.Publish(ctx, Event{Topic: "sitekit.pages.warmed"}))
	require.NoError(t, bus.Publish(ctx, Event{Topic: "elsewhere"}))
	assert.Eventually(t, func() bool { return len(c.snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"sitekit.invalidate", "sitekit.pages.warmed"}, c.snapshot())

	require.NoError(t, sub.Cancel())
	require.NoError(t, sub.Cancel())
	assert.Empty(t, bus.Topics())
}

func TestNatsEventBus_ConnectFailure(t *testing.T) {
	cfg := natsConfig("nats://127.0.0.1:1")
	cfg.ConnectTimeout = 200 * time.Millisecond
	bus := NewNatsEventBus(cfg, nil, nil)
	assert.Error(t, bus.Start(context.Background()))
	assert.ErrorIs(t, bus.Publish(context.Background(), Event{Topic: "a"}), ErrEventBusNotStarted)
}

func TestModule_NATSFromEnv(t *testing.T) {
	ns := runNATS(t)
	t.Setenv("EVENTBUS_ENGINE", "nats")
	t.Setenv("NATS_URL", ns.ClientURL())
	t.Setenv("INSTANCE_ID", "web-1")

	app := sitekit.NewStdApplication(nil, nil)
	app.SetConfigFeeders([]sitekit.Feeder{feeders.NewEnvFeeder()})
	app.RegisterModule(NewModule())
	require.NoError(t, app.Init())
	require.NoError(t, app.Start())
	defer app.Stop()

	var bus *EventBusModule
	require.NoError(t, app.GetService(ServiceName, &bus))
	assert.IsType(t, &NatsEventBus{}, bus.eventbus)
	assert.Equal(t, "web-1", bus.InstanceID())

	received := make(chan Event, 1)
	_, err := bus.Subscribe(context.Background(), "sitekit.invalidate", func(_ context.Context, e Event) error {
		received <- e
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), "sitekit.invalidate", map[string]any{"reason": "test"}))

	select {
	case e := <-received:
		assert.Equal(t, "web-1", e.Metadata["source"])
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}
}

func TestModule_DefaultsToMemory(t *testing.T) {
	app := sitekit.NewStdApplication(nil, nil)
	app.SetConfigFeeders([]sitekit.Feeder{})
	app.RegisterModule(NewModule())
	require.NoError(t, app.Init())

	var bus *EventBusModule
	require.NoError(t, app.GetService(ServiceName, &bus))
	assert.IsType(t, &MemoryEventBus{}, bus.eventbus)
	assert.NotEmpty(t, bus.InstanceID())
	assert.Equal(t, 64, bus.config.DefaultEventBufferSize)

	_, err := bus.Subscribe(context.Background(), "a", func(context.Context, Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusNotStarted)
}

func TestModule_InvalidEngine(t *testing.T) {
	t.Setenv("EVENTBUS_ENGINE", "kafka")
	app := sitekit.NewStdApplication(nil, nil)
	app.SetConfigFeeders([]sitekit.Feeder{feeders.NewEnvFeeder()})
	app.RegisterModule(NewModule())
	assert.ErrorIs(t, app.Init(), ErrInvalidConfig)
}
