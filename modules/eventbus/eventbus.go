// Package eventbus provides topic-based publish/subscribe between modules
// and, with the NATS engine, between site instances. Cache invalidations
// travel over it so every instance drops the same pages.
package eventbus

import (
	"context"
	"errors"
	"time"
)

// EventBus errors
var (
	ErrEventBusNotStarted      = errors.New("event bus not started")
	ErrEventBusShutdownTimeout = errors.New("event bus shutdown timed out")
	ErrEventHandlerNil         = errors.New("event handler cannot be nil")
	ErrInvalidSubscriptionType = errors.New("invalid subscription type")
	ErrInvalidTopic            = errors.New("invalid topic")
	ErrInvalidConfig           = errors.New("invalid eventbus configuration")
)

// Event is a message on the bus.
type Event struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`

	// Metadata carries the publishing instance under "source".
	Metadata map[string]any `json:"metadata,omitempty"`

	// CreatedAt is set when the event is published.
	CreatedAt time.Time `json:"createdAt"`
}

// EventHandler handles one event. Handlers should honour ctx and return
// promptly; a returned error is logged and reported, never retried.
type EventHandler func(ctx context.Context, event Event) error

// Subscription is a handler registered for a topic pattern.
type Subscription interface {
	Topic() string
	ID() string

	// IsAsync reports whether events are handed to the worker pool instead
	// of the subscription's own goroutine.
	IsAsync() bool

	// Cancel stops delivery. It is idempotent.
	Cancel() error
}

// EventBus is implemented by each engine.
type EventBus interface {
	Start(ctx context.Context) error

	// Stop releases the engine. In-flight handlers get until ctx is done.
	Stop(ctx context.Context) error

	Publish(ctx context.Context, event Event) error

	// Subscribe delivers matching events in order on a goroutine owned by
	// the subscription.
	Subscribe(ctx context.Context, topic string, handler EventHandler) (Subscription, error)

	// SubscribeAsync delivers matching events through the worker pool, so
	// they may be handled concurrently and out of order.
	SubscribeAsync(ctx context.Context, topic string, handler EventHandler) (Subscription, error)

	Unsubscribe(ctx context.Context, subscription Subscription) error

	// Topics lists the topic patterns with at least one subscriber.
	Topics() []string

	SubscriberCount(topic string) int
}
