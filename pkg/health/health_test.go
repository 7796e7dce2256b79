package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(status Status) CheckFunc {
	return func() Check { return Check{Status: status} }
}

func TestCheckStatusAggregation(t *testing.T) {
	tests := []struct {
		name   string
		checks []Status
		want   Status
	}{
		{"no checks", nil, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			for i, s := range tt.checks {
				hc.RegisterCheck(string(rune('a'+i)), fixed(s))
			}
			resp := hc.Check()
			assert.Equal(t, tt.want, resp.Status)
			assert.Len(t, resp.Checks, len(tt.checks))
		})
	}
}

func TestCheckFillsNameAndTiming(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterCheck("legend", fixed(StatusHealthy))

	resp := hc.Check()
	check := resp.Checks["legend"]
	assert.Equal(t, "legend", check.Name)
	assert.False(t, check.LastChecked.IsZero())
	assert.GreaterOrEqual(t, resp.Uptime, 0.0)
}

func TestReadinessSeparateFromHealth(t *testing.T) {
	hc := NewHealthChecker()
	called := false
	hc.RegisterReadinessCheck("ready", func() Check {
		called = true
		return Check{Status: StatusHealthy}
	})

	hc.Check()
	assert.False(t, called)
	hc.CheckReadiness()
	assert.True(t, called)
}

func TestLegendCheck(t *testing.T) {
	check := LegendCheck(func() (string, int, error) { return "", 0, errors.New("not loaded") })()
	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.Equal(t, "not loaded", check.Message)

	check = LegendCheck(func() (string, int, error) { return "snap", 3, nil })()
	assert.Equal(t, StatusHealthy, check.Status)
	assert.Equal(t, "snap", check.Details["snapshot_id"])
	assert.Equal(t, 3, check.Details["located"])
}

func TestStoreCheck(t *testing.T) {
	check := StoreCheck("postgres", func() error { return nil })()
	assert.Equal(t, StatusHealthy, check.Status)
	assert.Equal(t, "postgres", check.Details["backend"])

	check = StoreCheck("postgres", func() error { return errors.New("connection refused") })()
	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.Equal(t, "connection refused", check.Message)
}

func TestGraphCheck(t *testing.T) {
	assert.Equal(t, StatusHealthy, GraphCheck(func() (int, error) { return 0, nil })().Status)
	assert.Equal(t, StatusDegraded, GraphCheck(func() (int, error) { return 2, nil })().Status)
	assert.Equal(t, StatusUnhealthy, GraphCheck(func() (int, error) { return 0, errors.New("x") })().Status)
}

func TestHTTPHandlers(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterCheck("graph", fixed(StatusDegraded))
	hc.RegisterReadinessCheck("legend", fixed(StatusDegraded))

	rec := httptest.NewRecorder()
	hc.HTTPHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusDegraded, resp.Status)

	rec = httptest.NewRecorder()
	hc.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	hc.RegisterCheck("store", fixed(StatusUnhealthy))
	rec = httptest.NewRecorder()
	hc.HTTPHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
