package eventbus

import (
	"fmt"
	"time"
)

// Engines
const (
	EngineMemory = "memory"
	EngineNATS   = "nats"
)

// Delivery modes for the memory engine when a subscriber's buffer is full.
const (
	DeliveryDrop    = "drop"
	DeliveryBlock   = "block"
	DeliveryTimeout = "timeout"
)

// EventBusConfig configures the event bus.
//
// Example YAML configuration:
//
//	eventbus:
//	  engine: nats
//	  natsURL: nats://nats.internal:4222
//	  subjectPrefix: site.
type EventBusConfig struct {
	// Engine is "memory" for a single instance or "nats" to share events
	// between instances.
	Engine string `json:"engine" yaml:"engine" toml:"engine" env:"EVENTBUS_ENGINE" default:"memory" desc:"Event bus engine (memory or nats)"`

	// DefaultEventBufferSize is the per-subscription buffer.
	DefaultEventBufferSize int `json:"defaultEventBufferSize" yaml:"defaultEventBufferSize" toml:"defaultEventBufferSize" env:"EVENTBUS_BUFFER_SIZE" default:"64" desc:"Per-subscription event buffer"`

	// WorkerCount is the size of the pool serving async subscriptions.
	WorkerCount int `json:"workerCount" yaml:"workerCount" toml:"workerCount" env:"EVENTBUS_WORKERS" default:"4" desc:"Workers for async subscriptions"`

	// DeliveryMode decides what the memory engine does when a subscriber
	// is full: drop the event, block the publisher, or block up to
	// PublishBlockTimeout.
	DeliveryMode string `json:"deliveryMode" yaml:"deliveryMode" toml:"deliveryMode" env:"EVENTBUS_DELIVERY_MODE" default:"drop" desc:"drop, block or timeout"`

	PublishBlockTimeout time.Duration `json:"publishBlockTimeout" yaml:"publishBlockTimeout" toml:"publishBlockTimeout" env:"EVENTBUS_PUBLISH_TIMEOUT" default:"250ms" desc:"Wait for a full subscriber in timeout mode"`

	// NATSURL is the server the NATS engine connects to.
	NATSURL string `json:"natsURL" yaml:"natsURL" toml:"natsURL" env:"NATS_URL" default:"nats://127.0.0.1:4222" desc:"NATS server URL"`

	// SubjectPrefix is prepended to every topic on NATS so several sites
	// can share a server.
	SubjectPrefix string `json:"subjectPrefix" yaml:"subjectPrefix" toml:"subjectPrefix" env:"NATS_SUBJECT_PREFIX" desc:"Prefix for NATS subjects"`

	ConnectTimeout time.Duration `json:"connectTimeout" yaml:"connectTimeout" toml:"connectTimeout" env:"NATS_CONNECT_TIMEOUT" default:"5s" desc:"NATS connect timeout"`

	// InstanceID identifies this instance in event metadata. A random ID is
	// used when empty.
	InstanceID string `json:"instanceID" yaml:"instanceID" toml:"instanceID" env:"INSTANCE_ID" desc:"Identifier of this instance"`
}

// Validate checks the engine, delivery mode and sizes.
func (c *EventBusConfig) Validate() error {
	switch c.Engine {
	case EngineMemory, EngineNATS:
	default:
		return fmt.Errorf("%w: unknown engine %q", ErrInvalidConfig, c.Engine)
	}
	switch c.DeliveryMode {
	case DeliveryDrop, DeliveryBlock, DeliveryTimeout:
	default:
		return fmt.Errorf("%w: unknown delivery mode %q", ErrInvalidConfig, c.DeliveryMode)
	}
	if c.DefaultEventBufferSize < 1 || c.WorkerCount < 1 {
		return fmt.Errorf("%w: buffer size and worker count must be at least 1", ErrInvalidConfig)
	}
	return nil
}
