package sitekit

import (
	"context"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Option configures an ApplicationBuilder.
type Option func(*ApplicationBuilder) error

// ApplicationBuilder assembles a StdApplication from options.
type ApplicationBuilder struct {
	logger         Logger
	configProvider ConfigProvider
	feeders        []Feeder
	modules        []Module
	observers      []observerSpec
}

type observerSpec struct {
	id         string
	fn         ObserverFunc
	eventTypes []string
}

// ObserverFunc is a functional observer registered through WithObserver.
type ObserverFunc func(ctx context.Context, event cloudevents.Event) error

// NewApplication builds an application from opts. A logger is required.
func NewApplication(opts ...Option) (*StdApplication, error) {
	b := &ApplicationBuilder{}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// Build constructs the application, registering observers before modules
// so registration events are delivered.
func (b *ApplicationBuilder) Build() (*StdApplication, error) {
	if b.logger == nil {
		return nil, ErrLoggerNotSet
	}
	if b.configProvider == nil {
		b.configProvider = NewStdConfigProvider(&struct{}{})
	}

	app := NewStdApplication(b.configProvider, b.logger)
	if b.feeders != nil {
		app.SetConfigFeeders(b.feeders)
	}

	for _, o := range b.observers {
		if err := app.RegisterObserver(NewFunctionalObserver(o.id, o.fn), o.eventTypes...); err != nil {
			return nil, err
		}
	}
	for _, m := range b.modules {
		app.RegisterModule(m)
	}
	return app, nil
}

// WithLogger sets the application logger.
func WithLogger(logger Logger) Option {
	return func(b *ApplicationBuilder) error {
		b.logger = logger
		return nil
	}
}

// WithConfigProvider sets the main config provider.
func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *ApplicationBuilder) error {
		b.configProvider = provider
		return nil
	}
}

// WithConfigFeeders replaces the default feeders for this application.
func WithConfigFeeders(feeders ...Feeder) Option {
	return func(b *ApplicationBuilder) error {
		b.feeders = append(b.feeders, feeders...)
		return nil
	}
}

// WithModules registers modules with the application.
func WithModules(modules ...Module) Option {
	return func(b *ApplicationBuilder) error {
		b.modules = append(b.modules, modules...)
		return nil
	}
}

// WithObserver registers fn under id for the given event types, or for all
// events when none are given.
func WithObserver(id string, fn ObserverFunc, eventTypes ...string) Option {
	return func(b *ApplicationBuilder) error {
		b.observers = append(b.observers, observerSpec{id: id, fn: fn, eventTypes: eventTypes})
		return nil
	}
}
