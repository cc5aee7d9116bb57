// Package eventlogger logs the application's CloudEvents. It registers as an
// observer, buffers events and writes them on a single goroutine through the
// application logger and, optionally, a JSON lines file.
package eventlogger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/digitalneighbour/sitekit"
)

// ModuleName is the name of this module
const ModuleName = "eventlogger"

// ServiceName is the name of the observer service
const ServiceName = "eventlogger.observer"

// EventLoggerModule is both the module and the observer.
type EventLoggerModule struct {
	config  *EventLoggerConfig
	logger  sitekit.Logger
	outputs []OutputTarget

	mu        sync.RWMutex
	eventChan chan cloudevents.Event
	stopChan  chan struct{}
	wg        sync.WaitGroup
	started   bool
	dropped   int
}

// NewModule creates the event logger module.
func NewModule() sitekit.Module {
	return &EventLoggerModule{}
}

func (m *EventLoggerModule) Name() string {
	return ModuleName
}

func (m *EventLoggerModule) RegisterConfig(app sitekit.Application) error {
	app.RegisterConfigSection(ModuleName, sitekit.NewStdConfigProvider(&EventLoggerConfig{Enabled: true}))
	return nil
}

func (m *EventLoggerModule) Init(app sitekit.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return fmt.Errorf("failed to get config section '%s': %w", ModuleName, err)
	}
	m.config = cfg.GetConfig().(*EventLoggerConfig)
	m.logger = app.Logger()

	m.outputs = []OutputTarget{NewLoggerTarget(m.logger)}
	if m.config.FilePath != "" {
		m.outputs = append(m.outputs, NewFileTarget(m.config.FilePath))
	}
	m.eventChan = make(chan cloudevents.Event, m.config.BufferSize)
	return nil
}

// RegisterObservers subscribes to every event; prefix filters are applied
// when an event arrives.
func (m *EventLoggerModule) RegisterObservers(subject sitekit.Subject) error {
	if !m.config.Enabled {
		m.logger.Info("Event logger is disabled")
		return nil
	}
	if err := subject.RegisterObserver(m); err != nil {
		return fmt.Errorf("failed to register event logger as observer: %w", err)
	}
	return nil
}

func (m *EventLoggerModule) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || !m.config.Enabled {
		return nil
	}
	for _, output := range m.outputs {
		if err := output.Start(ctx); err != nil {
			return fmt.Errorf("failed to start output target: %w", err)
		}
	}
	m.stopChan = make(chan struct{})
	m.wg.Add(1)
	go m.processEvents()
	m.started = true
	m.logger.Info("Event logger started", "targets", len(m.outputs), "level", m.config.LogLevel)
	return nil
}

// Stop drains buffered events and closes the outputs.
func (m *EventLoggerModule) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	close(m.stopChan)
	m.mu.Unlock()

	m.wg.Wait()
	for _, output := range m.outputs {
		if err := output.Stop(ctx); err != nil {
			m.logger.Error("Failed to stop output target", "error", err)
		}
	}
	return nil
}

func (m *EventLoggerModule) ProvidesServices() []sitekit.ServiceProvider {
	return []sitekit.ServiceProvider{{
		Name:        ServiceName,
		Description: "Event logger observer",
		Instance:    m,
	}}
}

func (m *EventLoggerModule) RequiresServices() []sitekit.ServiceDependency {
	return nil
}

func (m *EventLoggerModule) ObserverID() string {
	return ModuleName
}

// OnEvent queues the event without blocking the notifier.
func (m *EventLoggerModule) OnEvent(_ context.Context, event cloudevents.Event) error {
	if !m.shouldLog(event) {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return nil
	}
	select {
	case m.eventChan <- event:
		return nil
	default:
		m.dropped++
		return fmt.Errorf("%w: dropped %s", ErrEventBufferFull, event.Type())
	}
}

// Dropped reports how many events were dropped on a full buffer.
func (m *EventLoggerModule) Dropped() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dropped
}

func (m *EventLoggerModule) processEvents() {
	defer m.wg.Done()

	flushTicker := time.NewTicker(m.config.FlushInterval)
	defer flushTicker.Stop()

	for {
		select {
		case event := <-m.eventChan:
			m.logEvent(event)
		case <-flushTicker.C:
			m.flushOutputs()
		case <-m.stopChan:
			for {
				select {
				case event := <-m.eventChan:
					m.logEvent(event)
				default:
					m.flushOutputs()
					return
				}
			}
		}
	}
}

func (m *EventLoggerModule) logEvent(event cloudevents.Event) {
	entry := &LogEntry{
		Timestamp: event.Time(),
		Level:     eventLevel(event.Type()),
		ID:        event.ID(),
		Type:      event.Type(),
		Source:    event.Source(),
	}
	if m.config.IncludeData && len(event.Data()) > 0 {
		var data any
		if err := event.DataAs(&data); err != nil {
			data = string(event.Data())
		}
		entry.Data = data
	}
	if ext := event.Extensions(); len(ext) > 0 {
		entry.Metadata = ext
	}

	for _, output := range m.outputs {
		if err := output.WriteEvent(entry); err != nil {
			m.logger.Error("Failed to write event to output target", "error", err, "eventType", event.Type())
		}
	}
}

func (m *EventLoggerModule) flushOutputs() {
	for _, output := range m.outputs {
		if err := output.Flush(); err != nil {
			m.logger.Error("Failed to flush output target", "error", err)
		}
	}
}

func (m *EventLoggerModule) shouldLog(event cloudevents.Event) bool {
	if len(m.config.EventTypeFilters) > 0 {
		matched := false
		for _, prefix := range m.config.EventTypeFilters {
			if strings.HasPrefix(event.Type(), prefix) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return levelRank[eventLevel(event.Type())] >= levelRank[m.config.LogLevel]
}

// eventLevel maps an event type to a log level by its final segments.
func eventLevel(eventType string) string {
	switch {
	case strings.HasSuffix(eventType, ".failed"), strings.HasSuffix(eventType, ".error"):
		return LevelError
	case strings.HasSuffix(eventType, ".dropped"), strings.HasSuffix(eventType, ".rejected"), strings.HasSuffix(eventType, ".limited"):
		return LevelWarn
	case strings.HasSuffix(eventType, ".config.loaded"),
		strings.HasSuffix(eventType, ".request.processed"),
		strings.HasSuffix(eventType, ".request.completed"),
		strings.HasSuffix(eventType, ".message.published"),
		strings.HasSuffix(eventType, ".message.received"),
		strings.HasSuffix(eventType, ".cache.hit"),
		strings.HasSuffix(eventType, ".cache.miss"):
		return LevelDebug
	default:
		return LevelInfo
	}
}
