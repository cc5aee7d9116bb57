package sitekit

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool
	registeredAt time.Time
}

// RegisterObserver adds an observer. With no event types the observer
// receives every event. Registering the same ID again replaces the filter.
func (app *StdApplication) RegisterObserver(observer Observer, eventTypes ...string) error {
	app.observerMutex.Lock()
	defer app.observerMutex.Unlock()

	eventTypeMap := make(map[string]bool, len(eventTypes))
	for _, eventType := range eventTypes {
		eventTypeMap[eventType] = true
	}

	app.observers[observer.ObserverID()] = &observerRegistration{
		observer:     observer,
		eventTypes:   eventTypeMap,
		registeredAt: time.Now(),
	}

	app.logger.Debug("Observer registered", "observerID", observer.ObserverID(), "eventTypes", eventTypes)
	return nil
}

// UnregisterObserver removes an observer. Unknown observers are ignored.
func (app *StdApplication) UnregisterObserver(observer Observer) error {
	app.observerMutex.Lock()
	defer app.observerMutex.Unlock()

	if _, exists := app.observers[observer.ObserverID()]; exists {
		delete(app.observers, observer.ObserverID())
		app.logger.Debug("Observer unregistered", "observerID", observer.ObserverID())
	}
	return nil
}

// NotifyObservers validates the event and delivers it to every interested
// observer on its own goroutine. Observer errors and panics are logged.
func (app *StdApplication) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if event.Time().IsZero() {
		event.SetTime(time.Now())
	}
	if err := ValidateCloudEvent(event); err != nil {
		app.logger.Error("Invalid CloudEvent", "eventType", event.Type(), "error", err)
		return err
	}

	app.observerMutex.RLock()
	defer app.observerMutex.RUnlock()

	for _, registration := range app.observers {
		if len(registration.eventTypes) > 0 && !registration.eventTypes[event.Type()] {
			continue
		}

		go func(reg *observerRegistration) {
			defer func() {
				if r := recover(); r != nil {
					app.logger.Error("Observer panicked", "observerID", reg.observer.ObserverID(), "event", event.Type(), "panic", r)
				}
			}()

			if err := reg.observer.OnEvent(ctx, event); err != nil {
				app.logger.Error("Observer error", "observerID", reg.observer.ObserverID(), "event", event.Type(), "error", err)
			}
		}(registration)
	}

	return nil
}

// GetObservers returns information about registered observers.
func (app *StdApplication) GetObservers() []ObserverInfo {
	app.observerMutex.RLock()
	defer app.observerMutex.RUnlock()

	info := make([]ObserverInfo, 0, len(app.observers))
	for _, registration := range app.observers {
		eventTypes := make([]string, 0, len(registration.eventTypes))
		for eventType := range registration.eventTypes {
			eventTypes = append(eventTypes, eventType)
		}
		info = append(info, ObserverInfo{
			ID:           registration.observer.ObserverID(),
			EventTypes:   eventTypes,
			RegisteredAt: registration.registeredAt,
		})
	}
	return info
}

func (app *StdApplication) emitEvent(ctx context.Context, eventType string, data map[string]any) {
	app.observerMutex.RLock()
	empty := len(app.observers) == 0
	app.observerMutex.RUnlock()
	if empty {
		return
	}

	var payload any
	if data != nil {
		payload = data
	}
	if err := app.NotifyObservers(ctx, NewCloudEvent(eventType, "application", payload, nil)); err != nil {
		app.logger.Error("Failed to notify observers", "event", eventType, "error", err)
	}
}
