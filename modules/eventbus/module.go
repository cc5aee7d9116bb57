package eventbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/digitalneighbour/sitekit"
)

// ModuleName is the name of this module
const ModuleName = "eventbus"

// ServiceName is the name of the service provided by this module
const ServiceName = "eventbus.provider"

// EventBusModule owns the configured engine and stamps each published
// event with this instance's ID.
type EventBusModule struct {
	config   *EventBusConfig
	logger   sitekit.Logger
	subject  sitekit.Subject
	eventbus EventBus

	mutex     sync.RWMutex
	isStarted bool
}

// NewModule creates a new instance of the event bus module
func NewModule() sitekit.Module {
	return &EventBusModule{}
}

func (m *EventBusModule) Name() string {
	return ModuleName
}

func (m *EventBusModule) RegisterConfig(app sitekit.Application) error {
	app.RegisterConfigSection(ModuleName, sitekit.NewStdConfigProvider(&EventBusConfig{}))
	return nil
}

// Init picks the engine.
func (m *EventBusModule) Init(app sitekit.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return fmt.Errorf("failed to get config section '%s': %w", ModuleName, err)
	}
	m.config = cfg.GetConfig().(*EventBusConfig)
	m.logger = app.Logger()
	if subject, ok := app.(sitekit.Subject); ok {
		m.subject = subject
	}
	if m.config.InstanceID == "" {
		m.config.InstanceID = uuid.NewString()
	}

	switch m.config.Engine {
	case EngineNATS:
		m.eventbus = NewNatsEventBus(m.config, m.logger, m.emit)
		m.logger.Info("Using NATS event bus", "url", m.config.NATSURL, "prefix", m.config.SubjectPrefix)
	default:
		m.eventbus = NewMemoryEventBus(m.config, m.logger, m.emit)
		m.logger.Info("Using memory event bus")
	}
	return nil
}

func (m *EventBusModule) Start(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.isStarted {
		return nil
	}
	if err := m.eventbus.Start(ctx); err != nil {
		return err
	}
	m.isStarted = true
	m.emit(ctx, EventTypeBusStarted, map[string]any{"engine": m.config.Engine, "instance": m.config.InstanceID})
	return nil
}

func (m *EventBusModule) Stop(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.isStarted {
		return nil
	}
	if err := m.eventbus.Stop(ctx); err != nil {
		return err
	}
	m.isStarted = false
	m.emit(ctx, EventTypeBusStopped, map[string]any{"engine": m.config.Engine})
	return nil
}

func (m *EventBusModule) ProvidesServices() []sitekit.ServiceProvider {
	return []sitekit.ServiceProvider{{
		Name:        ServiceName,
		Description: "Event bus for message distribution",
		Instance:    m,
	}}
}

func (m *EventBusModule) RequiresServices() []sitekit.ServiceDependency {
	return nil
}

// InstanceID identifies this instance as the source of its events.
func (m *EventBusModule) InstanceID() string {
	return m.config.InstanceID
}

// Publish publishes payload on topic.
func (m *EventBusModule) Publish(ctx context.Context, topic string, payload any) error {
	event := Event{
		Topic:    topic,
		Payload:  payload,
		Metadata: map[string]any{"source": m.config.InstanceID},
	}
	if err := m.eventbus.Publish(ctx, event); err != nil {
		return err
	}
	m.emit(ctx, EventTypeMessagePublished, map[string]any{"topic": topic})
	return nil
}

func (m *EventBusModule) Subscribe(ctx context.Context, topic string, handler EventHandler) (Subscription, error) {
	return m.eventbus.Subscribe(ctx, topic, handler)
}

func (m *EventBusModule) SubscribeAsync(ctx context.Context, topic string, handler EventHandler) (Subscription, error) {
	return m.eventbus.SubscribeAsync(ctx, topic, handler)
}

func (m *EventBusModule) Unsubscribe(ctx context.Context, subscription Subscription) error {
	return m.eventbus.Unsubscribe(ctx, subscription)
}

func (m *EventBusModule) Topics() []string {
	return m.eventbus.Topics()
}

func (m *EventBusModule) SubscriberCount(topic string) int {
	return m.eventbus.SubscriberCount(topic)
}

// Stats reports delivery counters for engines that keep them. The NATS
// engine hands delivery to the server and reports zeros.
func (m *EventBusModule) Stats() (delivered, dropped uint64) {
	if counted, ok := m.eventbus.(interface{ Stats() (uint64, uint64) }); ok {
		return counted.Stats()
	}
	return 0, 0
}

// Engine returns the configured engine name.
func (m *EventBusModule) Engine() string {
	return m.config.Engine
}

func (m *EventBusModule) emit(ctx context.Context, eventType string, data map[string]any) {
	err := sitekit.EmitEvent(ctx, m.subject, sitekit.NewCloudEvent(eventType, ModuleName, data, nil))
	if err != nil {
		sitekit.HandleEventEmissionError(err, m.logger, ModuleName, eventType)
	}
}

// HealthCheck reports whether the bus is started and, for NATS, connected.
// A stopped or disconnected bus is degraded, never unhealthy.
func (m *EventBusModule) HealthCheck(_ context.Context) ([]sitekit.HealthReport, error) {
	m.mutex.RLock()
	started := m.isStarted
	m.mutex.RUnlock()

	report := sitekit.HealthReport{Module: ModuleName, Component: m.config.Engine, Status: sitekit.HealthStatusHealthy, Optional: true}
	switch {
	case !started:
		report.Status, report.Message = sitekit.HealthStatusDegraded, "event bus not started"
	default:
		if c, ok := m.eventbus.(interface{ Connected() bool }); ok && !c.Connected() {
			report.Status, report.Message = sitekit.HealthStatusDegraded, "NATS connection lost"
		}
	}
	return []sitekit.HealthReport{report}, nil
}
