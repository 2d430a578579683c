package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func TestServerMux(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		checks     map[string]readinessCheck
		wantStatus int
		wantBody   map[string]interface{}
	}{
		{
			name:       "health",
			path:       "/health",
			wantStatus: http.StatusOK,
			wantBody:   map[string]interface{}{"status": "healthy"},
		},
		{
			name:       "ready",
			path:       "/ready",
			checks:     map[string]readinessCheck{"zeebe": ok, "postgres": ok, "redis": ok},
			wantStatus: http.StatusOK,
			wantBody:   map[string]interface{}{"status": "ready"},
		},
		{
			name: "redis down",
			path: "/ready",
			checks: map[string]readinessCheck{
				"postgres": ok,
				"redis":    func(context.Context) error { return errors.New("dial tcp: connection refused") },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]interface{}{"status": "not_ready"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newServerMux(tt.checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			for k, v := range tt.wantBody {
				assert.Equal(t, v, body[k])
			}
		})
	}
}

func TestReadyHandler_ReportsEachCheck(t *testing.T) {
	checks := map[string]readinessCheck{
		"postgres": ok,
		"zeebe":    func(context.Context) error { return errors.New("no brokers") },
	}
	rec := httptest.NewRecorder()
	readyHandler(checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	var body struct {
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Checks["postgres"])
	assert.Equal(t, "no brokers", body.Checks["zeebe"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newServerMux(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
