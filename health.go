package sitekit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"
)

// HealthStatus is the state of a component. Higher values are worse.
type HealthStatus int

const (
	HealthStatusHealthy HealthStatus = iota
	HealthStatusDegraded
	HealthStatusUnhealthy
	HealthStatusUnknown
)

func (s HealthStatus) String() string {
	switch s {
	case HealthStatusHealthy:
		return "healthy"
	case HealthStatusDegraded:
		return "degraded"
	case HealthStatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

func (s HealthStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// HealthReport is one component's state as reported by its module.
type HealthReport struct {
	Module    string         `json:"module"`
	Component string         `json:"component,omitempty"`
	Status    HealthStatus   `json:"status"`
	Message   string         `json:"message,omitempty"`
	CheckedAt time.Time      `json:"checkedAt"`
	Optional  bool           `json:"optional"`
	Details   map[string]any `json:"details,omitempty"`
}

// HealthProvider is implemented by modules that can check the backends
// they depend on.
type HealthProvider interface {
	HealthCheck(ctx context.Context) ([]HealthReport, error)
}

// AggregatedHealth combines every provider's reports. Readiness ignores
// optional components.
type AggregatedHealth struct {
	Readiness   HealthStatus   `json:"readiness"`
	Health      HealthStatus   `json:"health"`
	Reports     []HealthReport `json:"reports"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// EventTypeHealthEvaluated is emitted after every CollectHealth.
const EventTypeHealthEvaluated = "com.sitekit.health.evaluated"

// CollectHealth asks every HealthProvider module for reports concurrently.
// A provider that errors, panics or outlives timeout is reported unhealthy.
func (app *StdApplication) CollectHealth(ctx context.Context, timeout time.Duration) AggregatedHealth {
	providers := make(map[string]HealthProvider)
	for name, module := range app.moduleRegistry {
		if hp, ok := module.(HealthProvider); ok {
			providers[name] = hp
		}
	}

	results := make(chan []HealthReport, len(providers))
	for name, hp := range providers {
		go func() {
			results <- collectFromProvider(ctx, name, hp, timeout)
		}()
	}

	reports := make([]HealthReport, 0, len(providers))
	for range providers {
		reports = append(reports, <-results...)
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Module != reports[j].Module {
			return reports[i].Module < reports[j].Module
		}
		return reports[i].Component < reports[j].Component
	})

	agg := aggregateHealth(reports)
	agg.GeneratedAt = time.Now()
	app.emitEvent(ctx, EventTypeHealthEvaluated, map[string]any{
		"health":    agg.Health.String(),
		"readiness": agg.Readiness.String(),
		"reports":   len(reports),
	})
	return agg
}

func collectFromProvider(ctx context.Context, module string, hp HealthProvider, timeout time.Duration) []HealthReport {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	unhealthy := func(msg string) []HealthReport {
		return []HealthReport{{Module: module, Status: HealthStatusUnhealthy, Message: msg, CheckedAt: time.Now()}}
	}

	type result struct {
		reports []HealthReport
		err     error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("health check panicked: %v", r)}
			}
		}()
		rs, err := hp.HealthCheck(ctx)
		done <- result{rs, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return unhealthy(res.err.Error())
		}
		for i := range res.reports {
			if res.reports[i].Module == "" {
				res.reports[i].Module = module
			}
			if res.reports[i].CheckedAt.IsZero() {
				res.reports[i].CheckedAt = time.Now()
			}
		}
		return res.reports
	case <-ctx.Done():
		return unhealthy("health check timed out")
	}
}

func aggregateHealth(reports []HealthReport) AggregatedHealth {
	readiness, health := HealthStatusHealthy, HealthStatusHealthy
	for _, r := range reports {
		health = max(health, r.Status)
		if !r.Optional {
			readiness = max(readiness, r.Status)
		}
	}
	return AggregatedHealth{Readiness: readiness, Health: health, Reports: reports}
}

// HealthCollector is implemented by StdApplication.
type HealthCollector interface {
	CollectHealth(ctx context.Context, timeout time.Duration) AggregatedHealth
}

// HealthHandler serves the aggregated health as JSON. It answers 503 while
// a required component is unhealthy.
func HealthHandler(c HealthCollector, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agg := c.CollectHealth(r.Context(), timeout)
		status := http.StatusOK
		if agg.Readiness >= HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(agg)
	}
}
