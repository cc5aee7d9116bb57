// Package sitekit provides the application container that the site's backend
// modules plug into: module lifecycle, configuration sections and feeders,
// a service registry with dependency injection, and CloudEvents-based
// observers.
package sitekit

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer receives CloudEvents from a Subject.
type Observer interface {
	// OnEvent is called for every event the observer registered for.
	// It runs on its own goroutine and should return promptly.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier for this observer.
	ObserverID() string
}

// Subject is implemented by anything observers can register with.
// StdApplication is the Subject every module sees.
type Subject interface {
	RegisterObserver(observer Observer, eventTypes ...string) error
	UnregisterObserver(observer Observer) error
	NotifyObservers(ctx context.Context, event cloudevents.Event) error
	GetObservers() []ObserverInfo
}

// ObserverInfo provides information about a registered observer.
type ObserverInfo struct {
	ID           string    `json:"id"`
	EventTypes   []string  `json:"eventTypes"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Event types emitted by the application itself.
const (
	EventTypeModuleRegistered  = "com.sitekit.module.registered"
	EventTypeModuleInitialized = "com.sitekit.module.initialized"
	EventTypeModuleStarted     = "com.sitekit.module.started"
	EventTypeModuleStopped     = "com.sitekit.module.stopped"
	EventTypeModuleFailed      = "com.sitekit.module.failed"

	EventTypeServiceRegistered = "com.sitekit.service.registered"

	EventTypeConfigLoaded = "com.sitekit.config.loaded"

	EventTypeApplicationStarted = "com.sitekit.application.started"
	EventTypeApplicationStopped = "com.sitekit.application.stopped"
	EventTypeApplicationFailed  = "com.sitekit.application.failed"
)

// ObservableModule is implemented by modules that observe application events.
// RegisterObservers is called right after the module's Init.
type ObservableModule interface {
	Module
	RegisterObservers(subject Subject) error
}

// FunctionalObserver adapts a function to the Observer interface.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates an observer backed by handler.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{id: id, handler: handler}
}

// OnEvent calls the handler function.
func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

// ObserverID returns the observer ID.
func (f *FunctionalObserver) ObserverID() string {
	return f.id
}
