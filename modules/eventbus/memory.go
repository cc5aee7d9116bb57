package eventbus

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"

	"github.com/digitalneighbour/sitekit"
)

// reportFunc forwards engine activity to the module's observers.
type reportFunc func(ctx context.Context, eventType string, data map[string]any)

// MemoryEventBus delivers events inside one process. Topics are glob
// patterns split on ".": "sitekit.*" matches "sitekit.invalidate" and
// "sitekit.**" matches any depth below it.
type MemoryEventBus struct {
	config *EventBusConfig
	logger sitekit.Logger
	report reportFunc

	mu            sync.RWMutex
	subscriptions map[string]map[string]*memorySubscription
	started       bool

	workerPool chan func()
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	deliveredCount atomic.Uint64
	droppedCount   atomic.Uint64
}

type memorySubscription struct {
	bus      *MemoryEventBus
	id       string
	topic    string
	matcher  glob.Glob
	handler  EventHandler
	isAsync  bool
	eventCh  chan Event
	done     chan struct{}
	finished chan struct{}
	once     sync.Once
}

func (s *memorySubscription) Topic() string { return s.topic }
func (s *memorySubscription) ID() string    { return s.id }
func (s *memorySubscription) IsAsync() bool { return s.isAsync }

// Cancel removes the subscription from its bus.
func (s *memorySubscription) Cancel() error {
	s.bus.remove(s)
	return nil
}

func (s *memorySubscription) stop() bool {
	stopped := false
	s.once.Do(func() {
		close(s.done)
		stopped = true
	})
	return stopped
}

func (s *memorySubscription) cancelled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// NewMemoryEventBus creates a new in-memory event bus. logger and report
// may be nil.
func NewMemoryEventBus(config *EventBusConfig, logger sitekit.Logger, report reportFunc) *MemoryEventBus {
	if logger == nil {
		logger = sitekit.NopLogger{}
	}
	if report == nil {
		report = func(context.Context, string, map[string]any) {}
	}
	return &MemoryEventBus{
		config:        config,
		logger:        logger,
		report:        report,
		subscriptions: make(map[string]map[string]*memorySubscription),
	}
}

// Start launches the worker pool.
func (m *MemoryEventBus) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}

	m.ctx, m.cancel = context.WithCancel(context.WithoutCancel(ctx))
	m.workerPool = make(chan func())
	for i := 0; i < m.config.WorkerCount; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	m.started = true
	return nil
}

// Stop cancels every subscription and waits for handlers to return.
func (m *MemoryEventBus) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	for _, subs := range m.subscriptions {
		for _, sub := range subs {
			sub.stop()
		}
	}
	m.subscriptions = make(map[string]map[string]*memorySubscription)
	m.started = false
	m.cancel()
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ErrEventBusShutdownTimeout
	}
}

// Publish queues event for every subscription whose pattern matches its
// topic. What happens when a subscriber is full depends on DeliveryMode.
func (m *MemoryEventBus) Publish(ctx context.Context, event Event) error {
	m.mu.RLock()
	if !m.started {
		m.mu.RUnlock()
		return ErrEventBusNotStarted
	}
	var matching []*memorySubscription
	for _, subs := range m.subscriptions {
		for _, sub := range subs {
			if sub.matcher.Match(event.Topic) {
				matching = append(matching, sub)
			}
		}
	}
	m.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	for _, sub := range matching {
		if !m.enqueue(ctx, sub, event) {
			m.droppedCount.Add(1)
			m.logger.Warn("Dropped event for full subscriber", "topic", event.Topic, "subscription", sub.id)
			m.report(ctx, EventTypeMessageDropped, map[string]any{"topic": event.Topic, "subscription_id": sub.id})
		}
	}
	return nil
}

func (m *MemoryEventBus) enqueue(ctx context.Context, sub *memorySubscription, event Event) bool {
	switch m.config.DeliveryMode {
	case DeliveryBlock:
		select {
		case sub.eventCh <- event:
			return true
		case <-sub.done:
		case <-ctx.Done():
		}
		return false
	case DeliveryTimeout:
		timer := time.NewTimer(m.config.PublishBlockTimeout)
		defer timer.Stop()
		select {
		case sub.eventCh <- event:
			return true
		case <-timer.C:
		case <-sub.done:
		case <-ctx.Done():
		}
		return false
	default:
		select {
		case sub.eventCh <- event:
			return true
		default:
			return false
		}
	}
}

// Subscribe registers a handler that sees matching events in order.
func (m *MemoryEventBus) Subscribe(ctx context.Context, topic string, handler EventHandler) (Subscription, error) {
	return m.subscribe(ctx, topic, handler, false)
}

// SubscribeAsync registers a handler run on the worker pool.
func (m *MemoryEventBus) SubscribeAsync(ctx context.Context, topic string, handler EventHandler) (Subscription, error) {
	return m.subscribe(ctx, topic, handler, true)
}

func (m *MemoryEventBus) subscribe(ctx context.Context, topic string, handler EventHandler, isAsync bool) (Subscription, error) {
	if handler == nil {
		return nil, ErrEventHandlerNil
	}
	matcher, err := glob.Compile(topic, '.')
	if err != nil || topic == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}

	sub := &memorySubscription{
		bus:      m,
		id:       uuid.NewString(),
		topic:    topic,
		matcher:  matcher,
		handler:  handler,
		isAsync:  isAsync,
		eventCh:  make(chan Event, m.config.DefaultEventBufferSize),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}

	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil, ErrEventBusNotStarted
	}
	_, exists := m.subscriptions[topic]
	if !exists {
		m.subscriptions[topic] = make(map[string]*memorySubscription)
	}
	m.subscriptions[topic][sub.id] = sub
	m.wg.Add(1)
	m.mu.Unlock()

	go m.handleEvents(sub)

	if !exists {
		m.report(ctx, EventTypeTopicCreated, map[string]any{"topic": topic})
	}
	return sub, nil
}

// Unsubscribe removes a subscription. Removing it twice is not an error.
func (m *MemoryEventBus) Unsubscribe(_ context.Context, subscription Subscription) error {
	sub, ok := subscription.(*memorySubscription)
	if !ok || sub.bus != m {
		return ErrInvalidSubscriptionType
	}
	m.remove(sub)
	return nil
}

func (m *MemoryEventBus) remove(sub *memorySubscription) {
	if !sub.stop() {
		return
	}

	m.mu.Lock()
	topicDeleted := false
	if subs, ok := m.subscriptions[sub.topic]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(m.subscriptions, sub.topic)
			topicDeleted = true
		}
	}
	m.mu.Unlock()

	// Wait briefly so no delivery starts after Cancel returns.
	select {
	case <-sub.finished:
	case <-time.After(100 * time.Millisecond):
	}

	if topicDeleted {
		m.report(context.Background(), EventTypeTopicDeleted, map[string]any{"topic": sub.topic})
	}
}

// Topics returns the subscribed topic patterns, sorted.
func (m *MemoryEventBus) Topics() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	topics := make([]string, 0, len(m.subscriptions))
	for topic := range m.subscriptions {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// SubscriberCount counts subscriptions registered under exactly topic.
func (m *MemoryEventBus) SubscriberCount(topic string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions[topic])
}

// Stats returns how many events were handled and dropped.
func (m *MemoryEventBus) Stats() (delivered, dropped uint64) {
	return m.deliveredCount.Load(), m.droppedCount.Load()
}

func (m *MemoryEventBus) handleEvents(sub *memorySubscription) {
	defer m.wg.Done()
	defer close(sub.finished)

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-sub.done:
			return
		case event := <-sub.eventCh:
			if sub.cancelled() {
				return
			}
			if !sub.isAsync {
				m.deliver(sub, event)
				continue
			}
			select {
			case m.workerPool <- func() { m.deliver(sub, event) }:
			case <-m.ctx.Done():
				return
			case <-sub.done:
				return
			}
		}
	}
}

func (m *MemoryEventBus) deliver(sub *memorySubscription, event Event) {
	m.report(m.ctx, EventTypeMessageReceived, map[string]any{"topic": event.Topic, "subscription_id": sub.id})
	if err := runHandler(m.ctx, sub.handler, event); err != nil {
		m.logger.Error("Event handler failed", "topic", event.Topic, "subscription", sub.id, "error", err)
		m.report(m.ctx, EventTypeMessageFailed, map[string]any{"topic": event.Topic, "subscription_id": sub.id, "error": err.Error()})
	}
	m.deliveredCount.Add(1)
}

func (m *MemoryEventBus) worker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case task := <-m.workerPool:
			task()
		}
	}
}

// runHandler turns a handler panic into an error.
func runHandler(ctx context.Context, handler EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event handler panicked: %v", r)
		}
	}()
	return handler(ctx, event)
}
