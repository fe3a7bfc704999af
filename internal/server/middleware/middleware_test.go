package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/observability"
)

func setupTelemetry(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()

	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{
		Enabled: true,
		Emitter: collector,
	})
	require.NoError(t, err)

	original := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() {
		observability.TelemetrySystem = original
	})

	return collector
}

func TestRequestMetricsEmitsCounters(t *testing.T) {
	collector := setupTelemetry(t)

	handler := RequestMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("queued"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/notification", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "queued", rec.Body.String())
	assert.Greater(t, collector.CountMetricsByName(HTTPRequestsTotal), 0)
	assert.Greater(t, collector.CountMetricsByName(HTTPRequestDuration), 0)
	assert.Greater(t, collector.CountMetricsByName(HTTPResponseBytes), 0)
}

func TestRequestMetricsWithoutTelemetry(t *testing.T) {
	original := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	t.Cleanup(func() { observability.TelemetrySystem = original })

	handler := RequestMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/notification", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouteLabelUsesChiPattern(t *testing.T) {
	var seen string
	r := chi.NewRouter()
	r.Get("/v1/upstream/*", func(w http.ResponseWriter, req *http.Request) {
		seen = routeLabel(req)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/upstream/users/17", nil))
	assert.Equal(t, "/v1/upstream/*", seen)
}

func TestRouteLabelFallbacks(t *testing.T) {
	tests := map[string]string{
		"/health":             "/health/*",
		"/health/ready":       "/health/*",
		"/version":            "/version",
		"/metrics":            "/metrics",
		"/":                   "/",
		"/v1/upstream/a/b/c":  "/v1/upstream/*",
		"/v1/loading":         "/v1/*",
		"/wp-admin/login.php": "unmatched",
	}

	for path, want := range tests {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, want, routeLabel(httptest.NewRequest(http.MethodGet, path, nil)))
		})
	}
}

func TestRequestIDHonorsIncomingHeader(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/loading", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRequestIDReplacesMalformedHeader(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	for _, bad := range []string{"", "has space", strings.Repeat("x", maxRequestIDLength+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, bad)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.NotEqual(t, bad, seen)
		assert.Len(t, seen, 36)
	}
}

func TestGetRequestIDNilContext(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	assert.Empty(t, GetRequestID(nil))
}

func TestRecoveryWritesEnvelope(t *testing.T) {
	collector := setupTelemetry(t)

	handler := RequestID(Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("menu exploded")
	})))

	req := httptest.NewRequest(http.MethodGet, "/v1/menu", nil)
	req.Header.Set(RequestIDHeader, "panic-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body panicResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.Equal(t, "panic-1", body.Error.RequestID)
	assert.NotContains(t, body.Error.Message, "menu exploded")
	assert.Greater(t, collector.CountMetricsByName("panics_recovered_total"), 0)
}
