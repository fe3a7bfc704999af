package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/panelkit/panelkit/internal/observability"
)

// HTTP metric names
const (
	HTTPRequestsTotal   = "http_requests_total"
	HTTPRequestDuration = "http_request_duration_ms"
	HTTPResponseBytes   = "http_response_size_bytes"
)

// statusRecorder captures the status code and body size written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.written += int64(n)
	return n, err
}

// Flush keeps streamed upstream bodies flowing through the recorder.
func (rec *statusRecorder) Flush() {
	if flusher, ok := rec.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// routeLabel returns the chi route pattern so metric labels stay bounded.
// Requests that never matched a route collapse into a handful of buckets.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	path := r.URL.Path
	switch {
	case path == "/health" || strings.HasPrefix(path, "/health/"):
		return "/health/*"
	case path == "/version", path == "/metrics", path == "/":
		return path
	case strings.HasPrefix(path, "/v1/upstream/"):
		return "/v1/upstream/*"
	case strings.HasPrefix(path, "/v1/"):
		return "/v1/*"
	default:
		return "unmatched"
	}
}

// RequestMetrics counts and times every request and writes one access log
// line per request.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		route := routeLabel(r)

		if observability.TelemetrySystem != nil {
			labels := map[string]string{
				"method": r.Method,
				"route":  route,
				"status": strconv.Itoa(rec.status),
			}
			_ = observability.TelemetrySystem.Counter(HTTPRequestsTotal, 1, labels)
			_ = observability.TelemetrySystem.Histogram(HTTPRequestDuration, duration, labels)
			_ = observability.TelemetrySystem.Gauge(HTTPResponseBytes, float64(rec.written), map[string]string{
				"method": r.Method,
				"route":  route,
			})
		}

		if logger := observability.ServerLogger; logger != nil {
			logger.Info("HTTP request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", rec.status),
				zap.Duration("duration", duration),
				zap.Int64("response_size", rec.written),
				zap.String("request_id", GetRequestID(r.Context())),
			)
		}
	})
}
