package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/digitalneighbour/sitekit"
)

// NatsEventBus shares events between instances through a NATS server.
// Topics map to subjects under SubjectPrefix, so subscriptions use NATS
// wildcards: "*" for one token and ">" for the rest.
type NatsEventBus struct {
	config *EventBusConfig
	logger sitekit.Logger
	report reportFunc

	mu            sync.RWMutex
	conn          *nats.Conn
	subscriptions map[string]*natsSubscription

	workerPool chan func()
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

type natsSubscription struct {
	bus     *NatsEventBus
	id      string
	topic   string
	isAsync bool
	handler EventHandler
	sub     *nats.Subscription
	once    sync.Once
}

func (s *natsSubscription) Topic() string { return s.topic }
func (s *natsSubscription) ID() string    { return s.id }
func (s *natsSubscription) IsAsync() bool { return s.isAsync }

// Cancel unsubscribes from the server.
func (s *natsSubscription) Cancel() error {
	return s.bus.remove(s)
}

// NewNatsEventBus creates a NATS event bus. It connects in Start.
func NewNatsEventBus(config *EventBusConfig, logger sitekit.Logger, report reportFunc) *NatsEventBus {
	if logger == nil {
		logger = sitekit.NopLogger{}
	}
	if report == nil {
		report = func(context.Context, string, map[string]any) {}
	}
	return &NatsEventBus{
		config:        config,
		logger:        logger,
		report:        report,
		subscriptions: make(map[string]*natsSubscription),
	}
}

// Start connects to the server and launches the worker pool.
func (n *NatsEventBus) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn != nil {
		return nil
	}

	conn, err := nats.Connect(n.config.NATSURL,
		nats.Name("sitekit-"+n.config.InstanceID),
		nats.Timeout(n.config.ConnectTimeout),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				n.logger.Warn("Disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			n.logger.Info("Reconnected to NATS", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return fmt.Errorf("connect to NATS at %s: %w", n.config.NATSURL, err)
	}
	n.conn = conn

	n.ctx, n.cancel = context.WithCancel(context.WithoutCancel(ctx))
	n.workerPool = make(chan func())
	for i := 0; i < n.config.WorkerCount; i++ {
		n.wg.Add(1)
		go n.worker()
	}
	return nil
}

// Stop drains the connection so queued messages are handled, then closes.
func (n *NatsEventBus) Stop(ctx context.Context) error {
	n.mu.Lock()
	conn := n.conn
	if conn == nil {
		n.mu.Unlock()
		return nil
	}
	n.conn = nil
	n.subscriptions = make(map[string]*natsSubscription)
	n.mu.Unlock()

	if err := conn.Drain(); err != nil {
		n.logger.Warn("Failed to drain NATS connection", "error", err)
	}
	for !conn.IsClosed() {
		select {
		case <-ctx.Done():
			conn.Close()
			n.cancel()
			return ErrEventBusShutdownTimeout
		case <-time.After(10 * time.Millisecond):
		}
	}
	n.cancel()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ErrEventBusShutdownTimeout
	}
}

func (n *NatsEventBus) subject(topic string) string {
	return n.config.SubjectPrefix + topic
}

// Publish encodes event as JSON and publishes it on the topic's subject.
func (n *NatsEventBus) Publish(_ context.Context, event Event) error {
	n.mu.RLock()
	conn := n.conn
	n.mu.RUnlock()
	if conn == nil {
		return ErrEventBusNotStarted
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event for %s: %w", event.Topic, err)
	}
	if err := conn.Publish(n.subject(event.Topic), data); err != nil {
		return fmt.Errorf("publish %s: %w", event.Topic, err)
	}
	return nil
}

// Subscribe handles messages in order on the NATS subscription's goroutine.
func (n *NatsEventBus) Subscribe(ctx context.Context, topic string, handler EventHandler) (Subscription, error) {
	return n.subscribe(ctx, topic, handler, false)
}

// SubscribeAsync hands messages to the worker pool.
func (n *NatsEventBus) SubscribeAsync(ctx context.Context, topic string, handler EventHandler) (Subscription, error) {
	return n.subscribe(ctx, topic, handler, true)
}

func (n *NatsEventBus) subscribe(ctx context.Context, topic string, handler EventHandler, isAsync bool) (Subscription, error) {
	if handler == nil {
		return nil, ErrEventHandlerNil
	}
	if topic == "" || strings.ContainsAny(topic, " \t\r\n") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn == nil {
		return nil, ErrEventBusNotStarted
	}

	s := &natsSubscription{bus: n, id: uuid.NewString(), topic: topic, isAsync: isAsync, handler: handler}
	sub, err := n.conn.Subscribe(n.subject(topic), func(msg *nats.Msg) {
		n.onMessage(s, msg)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	// Make sure the server knows about the subscription before returning.
	if err := n.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	s.sub = sub
	n.subscriptions[s.id] = s

	n.report(ctx, EventTypeTopicCreated, map[string]any{"topic": topic, "engine": EngineNATS})
	return s, nil
}

func (n *NatsEventBus) onMessage(s *natsSubscription, msg *nats.Msg) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		n.logger.Warn("Discarding undecodable NATS message", "subject", msg.Subject, "error", err)
		return
	}
	if event.Topic == "" {
		event.Topic = strings.TrimPrefix(msg.Subject, n.config.SubjectPrefix)
	}

	deliver := func() {
		n.report(n.ctx, EventTypeMessageReceived, map[string]any{"topic": event.Topic, "subscription_id": s.id})
		if err := runHandler(n.ctx, s.handler, event); err != nil {
			n.logger.Error("Event handler failed", "topic", event.Topic, "subscription", s.id, "error", err)
			n.report(n.ctx, EventTypeMessageFailed, map[string]any{"topic": event.Topic, "subscription_id": s.id, "error": err.Error()})
		}
	}
	if !s.isAsync {
		deliver()
		return
	}
	select {
	case n.workerPool <- deliver:
	case <-n.ctx.Done():
	}
}

// Unsubscribe removes a subscription. Removing it twice is not an error.
func (n *NatsEventBus) Unsubscribe(_ context.Context, subscription Subscription) error {
	s, ok := subscription.(*natsSubscription)
	if !ok || s.bus != n {
		return ErrInvalidSubscriptionType
	}
	return n.remove(s)
}

func (n *NatsEventBus) remove(s *natsSubscription) error {
	var err error
	s.once.Do(func() {
		n.mu.Lock()
		delete(n.subscriptions, s.id)
		n.mu.Unlock()
		if s.sub.IsValid() {
			err = s.sub.Unsubscribe()
		}
	})
	return err
}

// Topics lists the subscribed topics, sorted and without duplicates.
func (n *NatsEventBus) Topics() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	seen := make(map[string]struct{})
	topics := []string{}
	for _, s := range n.subscriptions {
		if _, ok := seen[s.topic]; ok {
			continue
		}
		seen[s.topic] = struct{}{}
		topics = append(topics, s.topic)
	}
	sort.Strings(topics)
	return topics
}

// SubscriberCount counts this instance's subscriptions to topic.
func (n *NatsEventBus) SubscriberCount(topic string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	count := 0
	for _, s := range n.subscriptions {
		if s.topic == topic {
			count++
		}
	}
	return count
}

func (n *NatsEventBus) worker() {
	defer n.wg.Done()
	for {
		select {
		case <-n.ctx.Done():
			return
		case task := <-n.workerPool:
			task()
		}
	}
}

// Connected reports whether the NATS connection is up.
func (n *NatsEventBus) Connected() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.conn != nil && n.conn.IsConnected()
}
