package sitekit

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type testModule struct {
	name     string
	log      *callLog
	deps     []string
	provides []ServiceProvider
	requires []ServiceDependency
	initErr  error
	stopErr  error
	injected map[string]any
}

func (m *testModule) Name() string { return m.name }

func (m *testModule) Init(Application) error {
	m.log.add("init:" + m.name)
	return m.initErr
}

func (m *testModule) Dependencies() []string                { return m.deps }
func (m *testModule) ProvidesServices() []ServiceProvider   { return m.provides }
func (m *testModule) RequiresServices() []ServiceDependency { return m.requires }

func (m *testModule) Start(context.Context) error {
	m.log.add("start:" + m.name)
	return nil
}

func (m *testModule) Stop(context.Context) error {
	m.log.add("stop:" + m.name)
	return m.stopErr
}

type greeter interface {
	Greet() string
}

type english struct{}

func (english) Greet() string { return "hello" }

// constructedModule records the services handed to its constructor.
type constructedModule struct {
	testModule
}

func (m *constructedModule) Constructor() ModuleConstructor {
	return func(_ Application, services map[string]any) (Module, error) {
		m.injected = services
		return m, nil
	}
}

func TestApplication_LifecycleOrder(t *testing.T) {
	log := &callLog{}
	app := NewStdApplication(nil, nil)
	app.RegisterModule(&testModule{
		name: "api", log: log,
		deps:     []string{"cache"},
		requires: []ServiceDependency{{Name: "db.conn", Required: true}},
	})
	app.RegisterModule(&testModule{
		name: "db", log: log,
		provides: []ServiceProvider{{Name: "db.conn", Instance: english{}}},
	})
	app.RegisterModule(&testModule{name: "cache", log: log})

	require.NoError(t, app.Init())
	require.NoError(t, app.Start())
	require.NoError(t, app.Stop())

	assert.Equal(t, []string{
		"init:cache", "init:db", "init:api",
		"start:cache", "start:db", "start:api",
		"stop:api", "stop:db", "stop:cache",
	}, log.all())
}

func TestApplication_StopContinuesAfterError(t *testing.T) {
	log := &callLog{}
	boom := errors.New("boom")
	app := NewStdApplication(nil, nil)
	app.RegisterModule(&testModule{name: "a", log: log})
	app.RegisterModule(&testModule{name: "b", log: log, deps: []string{"a"}, stopErr: boom})

	require.NoError(t, app.Init())
	require.NoError(t, app.Start())
	err := app.Stop()
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, log.all(), "stop:a")
}

func TestApplication_ConstructorInjection(t *testing.T) {
	log := &callLog{}
	app := NewStdApplication(nil, nil)
	app.RegisterModule(&testModule{
		name: "provider", log: log,
		provides: []ServiceProvider{{Name: "greeter", Instance: english{}}},
	})
	consumer := &constructedModule{testModule{
		name: "consumer", log: log,
		requires: []ServiceDependency{
			{Name: "greeter", Required: true},
			{Name: "absent"},
		},
	}}
	app.RegisterModule(consumer)

	require.NoError(t, app.Init())
	require.Contains(t, consumer.injected, "greeter")
	assert.NotContains(t, consumer.injected, "absent")
	assert.Equal(t, "hello", consumer.injected["greeter"].(greeter).Greet())
}

func TestApplication_MatchByInterface(t *testing.T) {
	log := &callLog{}
	app := NewStdApplication(nil, nil)
	require.NoError(t, app.RegisterService("en", english{}))
	consumer := &constructedModule{testModule{
		name: "consumer", log: log,
		requires: []ServiceDependency{{
			Name:               "greeter",
			Required:           true,
			MatchByInterface:   true,
			SatisfiesInterface: reflect.TypeOf((*greeter)(nil)).Elem(),
		}},
	}}
	app.RegisterModule(consumer)

	require.NoError(t, app.Init())
	assert.IsType(t, english{}, consumer.injected["greeter"])
}

func TestApplication_InitErrors(t *testing.T) {
	tests := []struct {
		name    string
		modules func(log *callLog) []Module
		wantErr error
	}{
		{
			name: "missing required service",
			modules: func(log *callLog) []Module {
				return []Module{&testModule{name: "a", log: log, requires: []ServiceDependency{{Name: "nope", Required: true}}}}
			},
			wantErr: ErrRequiredServiceNotFound,
		},
		{
			name: "missing module dependency",
			modules: func(log *callLog) []Module {
				return []Module{&testModule{name: "a", log: log, deps: []string{"ghost"}}}
			},
			wantErr: ErrModuleDependencyMissing,
		},
		{
			name: "circular dependency",
			modules: func(log *callLog) []Module {
				return []Module{
					&testModule{name: "a", log: log, deps: []string{"b"}},
					&testModule{name: "b", log: log, deps: []string{"a"}},
				}
			},
			wantErr: ErrCircularDependency,
		},
		{
			name: "wrong interface",
			modules: func(log *callLog) []Module {
				return []Module{
					&testModule{name: "a", log: log, provides: []ServiceProvider{{Name: "svc", Instance: 42}}},
					&testModule{name: "b", log: log, requires: []ServiceDependency{{
						Name: "svc", Required: true,
						SatisfiesInterface: reflect.TypeOf((*greeter)(nil)).Elem(),
					}}},
				}
			},
			wantErr: ErrServiceWrongInterface,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewStdApplication(nil, nil)
			for _, m := range tt.modules(&callLog{}) {
				app.RegisterModule(m)
			}
			assert.ErrorIs(t, app.Init(), tt.wantErr)
		})
	}
}

func TestApplication_InitFailureStopsEarly(t *testing.T) {
	log := &callLog{}
	boom := errors.New("boom")
	app := NewStdApplication(nil, nil)
	app.RegisterModule(&testModule{name: "a", log: log, initErr: boom})
	app.RegisterModule(&testModule{name: "b", log: log, deps: []string{"a"}})

	err := app.Init()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"init:a"}, log.all())
}

func TestApplication_Services(t *testing.T) {
	app := NewStdApplication(nil, nil)
	require.NoError(t, app.RegisterService("greeter", english{}))
	require.NoError(t, app.RegisterService("ptr", &english{}))
	assert.ErrorIs(t, app.RegisterService("greeter", english{}), ErrServiceAlreadyRegistered)

	var g greeter
	require.NoError(t, app.GetService("greeter", &g))
	assert.Equal(t, "hello", g.Greet())

	var concrete english
	require.NoError(t, app.GetService("ptr", &concrete))

	var n int
	assert.ErrorIs(t, app.GetService("greeter", &n), ErrServiceIncompatible)
	assert.ErrorIs(t, app.GetService("greeter", g), ErrTargetNotPointer)
	assert.ErrorIs(t, app.GetService("missing", &g), ErrServiceNotFound)
}

func TestApplication_GetConfigSection(t *testing.T) {
	app := NewStdApplication(nil, nil)
	_, err := app.GetConfigSection("nope")
	assert.ErrorIs(t, err, ErrConfigSectionNotFound)

	cp := NewStdConfigProvider(&struct{ Name string }{"x"})
	app.RegisterConfigSection("named", cp)
	got, err := app.GetConfigSection("named")
	require.NoError(t, err)
	assert.Same(t, cp, got)
}
