package sitekit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type healthModule struct {
	name  string
	check func(ctx context.Context) ([]HealthReport, error)
}

func (m *healthModule) Name() string           { return m.name }
func (m *healthModule) Init(Application) error { return nil }

func (m *healthModule) HealthCheck(ctx context.Context) ([]HealthReport, error) {
	return m.check(ctx)
}

func reporting(reports ...HealthReport) func(context.Context) ([]HealthReport, error) {
	return func(context.Context) ([]HealthReport, error) { return reports, nil }
}

func TestCollectHealth(t *testing.T) {
	tests := []struct {
		name          string
		modules       []*healthModule
		wantReadiness HealthStatus
		wantHealth    HealthStatus
	}{
		{
			name:          "no providers",
			wantReadiness: HealthStatusHealthy,
			wantHealth:    HealthStatusHealthy,
		},
		{
			name: "optional degradation keeps readiness",
			modules: []*healthModule{
				{name: "db", check: reporting(HealthReport{Component: "connection", Status: HealthStatusHealthy})},
				{name: "cache", check: reporting(HealthReport{Status: HealthStatusDegraded, Optional: true})},
			},
			wantReadiness: HealthStatusHealthy,
			wantHealth:    HealthStatusDegraded,
		},
		{
			name: "optional unhealthy keeps readiness",
			modules: []*healthModule{
				{name: "bus", check: reporting(HealthReport{Status: HealthStatusUnhealthy, Optional: true})},
			},
			wantReadiness: HealthStatusHealthy,
			wantHealth:    HealthStatusUnhealthy,
		},
		{
			name: "error is unhealthy",
			modules: []*healthModule{
				{name: "db", check: func(context.Context) ([]HealthReport, error) { return nil, errors.New("ping failed") }},
			},
			wantReadiness: HealthStatusUnhealthy,
			wantHealth:    HealthStatusUnhealthy,
		},
		{
			name: "panic is unhealthy",
			modules: []*healthModule{
				{name: "db", check: func(context.Context) ([]HealthReport, error) { panic("nil pool") }},
			},
			wantReadiness: HealthStatusUnhealthy,
			wantHealth:    HealthStatusUnhealthy,
		},
		{
			name: "timeout is unhealthy",
			modules: []*healthModule{
				{name: "slow", check: func(ctx context.Context) ([]HealthReport, error) {
					<-ctx.Done()
					time.Sleep(10 * time.Millisecond)
					return nil, nil
				}},
			},
			wantReadiness: HealthStatusUnhealthy,
			wantHealth:    HealthStatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewStdApplication(nil, nil)
			for _, m := range tt.modules {
				app.RegisterModule(m)
			}
			agg := app.CollectHealth(context.Background(), 50*time.Millisecond)
			assert.Equal(t, tt.wantReadiness, agg.Readiness)
			assert.Equal(t, tt.wantHealth, agg.Health)
			assert.Len(t, agg.Reports, len(tt.modules))
			assert.False(t, agg.GeneratedAt.IsZero())
			for _, r := range agg.Reports {
				assert.NotEmpty(t, r.Module)
				assert.False(t, r.CheckedAt.IsZero())
			}
		})
	}
}

func TestCollectHealth_SortedReports(t *testing.T) {
	app := NewStdApplication(nil, nil)
	app.RegisterModule(&healthModule{name: "zeta", check: reporting(HealthReport{Component: "b"}, HealthReport{Component: "a"})})
	app.RegisterModule(&healthModule{name: "alpha", check: reporting(HealthReport{Module: "alpha", Component: "x"})})

	agg := app.CollectHealth(context.Background(), time.Second)
	require.Len(t, agg.Reports, 3)
	got := make([]string, 0, 3)
	for _, r := range agg.Reports {
		got = append(got, r.Module+"/"+r.Component)
	}
	assert.Equal(t, []string{"alpha/x", "zeta/a", "zeta/b"}, got)
}

func TestHealthHandler(t *testing.T) {
	app := NewStdApplication(nil, nil)
	app.RegisterModule(&healthModule{name: "db", check: reporting(HealthReport{Component: "connection", Status: HealthStatusUnhealthy, Message: "down"})})

	rec := httptest.NewRecorder()
	HealthHandler(app, time.Second).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body struct {
		Readiness string `json:"readiness"`
		Reports   []struct {
			Module  string `json:"module"`
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Readiness)
	require.Len(t, body.Reports, 1)
	assert.Equal(t, "db", body.Reports[0].Module)
	assert.Equal(t, "down", body.Reports[0].Message)
}

func TestHealthStatus_String(t *testing.T) {
	assert.Equal(t, "healthy", HealthStatusHealthy.String())
	assert.Equal(t, "degraded", HealthStatusDegraded.String())
	assert.Equal(t, "unhealthy", HealthStatusUnhealthy.String())
	assert.Equal(t, "unknown", HealthStatus(99).String())
}
