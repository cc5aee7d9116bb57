package sitekit

import (
	"context"
	"errors"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// CloudEvent is an alias for the CloudEvents Event type for convenience
type CloudEvent = cloudevents.Event

// NewCloudEvent creates a CloudEvent with a time-ordered ID, the current time
// and JSON data. Metadata entries become extensions.
func NewCloudEvent(eventType, source string, data any, metadata map[string]any) cloudevents.Event {
	event := cloudevents.NewEvent()

	event.SetID(generateEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)

	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}

	for key, value := range metadata {
		event.SetExtension(key, value)
	}

	return event
}

func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// ValidateCloudEvent validates that a CloudEvent has the required CloudEvents attributes.
func ValidateCloudEvent(event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("CloudEvent validation failed: %w", err)
	}
	return nil
}

// EmitEvent sends an event through subject. A nil subject yields
// ErrNoSubjectForEventEmission so callers can treat it as a no-op.
func EmitEvent(ctx context.Context, subject Subject, event cloudevents.Event) error {
	if subject == nil {
		return ErrNoSubjectForEventEmission
	}
	return subject.NotifyObservers(ctx, event)
}

// HandleEventEmissionError swallows the "no subject" error and logs anything
// else at debug level. It reports whether the error was handled.
func HandleEventEmissionError(err error, logger Logger, moduleName, eventType string) bool {
	if errors.Is(err, ErrNoSubjectForEventEmission) {
		return true
	}
	if logger != nil {
		logger.Debug("Failed to emit event", "module", moduleName, "eventType", eventType, "error", err)
		return true
	}
	return false
}
