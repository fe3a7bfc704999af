package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/telemetry/exporters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/observability"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestMetricsHandlerRelaysExporter(t *testing.T) {
	original := metricsProxyClient
	t.Cleanup(func() { metricsProxyClient = original })

	metricsProxyClient = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			resp := &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader("panelkit_loader_in_flight 0\n")),
				Header:     make(http.Header),
			}
			resp.Header.Set("Content-Type", "text/plain; version=0.0.4")
			resp.Header.Set("Connection", "keep-alive")
			return resp, nil
		}),
	}

	observability.PrometheusExporter = exporters.NewPrometheusExporter("panelkit", ":9090")
	t.Cleanup(func() { observability.PrometheusExporter = nil })

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Empty(t, rec.Header().Get("Connection"))
	assert.Contains(t, rec.Body.String(), "loader_in_flight")
}

func TestMetricsHandlerWithoutExporter(t *testing.T) {
	observability.PrometheusExporter = nil

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "SERVICE_UNAVAILABLE", resp.Error.Code)
}

func TestCopyEndToEndDropsConnectionScopedHeaders(t *testing.T) {
	src := http.Header{}
	src.Set("Connection", "X-Trace-Hop, close")
	src.Set("X-Trace-Hop", "1")
	src.Set("Transfer-Encoding", "chunked")
	src.Set("Content-Type", "application/json")
	src.Add("Set-Cookie", "a=1")
	src.Add("Set-Cookie", "b=2")

	dst := http.Header{}
	copyEndToEnd(dst, src)

	assert.Empty(t, dst.Get("Connection"))
	assert.Empty(t, dst.Get("X-Trace-Hop"))
	assert.Empty(t, dst.Get("Transfer-Encoding"))
	assert.Equal(t, "application/json", dst.Get("Content-Type"))
	assert.Equal(t, []string{"a=1", "b=2"}, dst.Values("Set-Cookie"))
}
