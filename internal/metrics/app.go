package metrics

import (
	"strings"
	"time"

	"github.com/panelkit/panelkit/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Loading indicator metrics
	LoaderInFlight         = "loader_in_flight"
	LoaderTransitionsTotal = "loader_transitions_total"

	// Guarded fetch metrics
	FetchRequestsTotal = "fetch_requests_total"
	FetchDuration      = "fetch_duration_ms"

	// Notification metrics
	NotificationsTotal = "notifications_total"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
)

// Fetch outcomes used as the "outcome" label.
const (
	FetchOutcomeOK             = "ok"
	FetchOutcomeHTTPError      = "http_error"
	FetchOutcomeTransportError = "transport_error"
)

// SetLoaderInFlight records the number of outstanding guarded requests
func SetLoaderInFlight(count int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			LoaderInFlight,
			float64(count),
			nil,
		)
	}
}

// RecordLoaderTransition counts idle/busy transitions
func RecordLoaderTransition(active bool) {
	to := "idle"
	if active {
		to = "busy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			LoaderTransitionsTotal,
			1,
			map[string]string{"to": to},
		)
	}
}

// RecordFetch records one guarded request with its outcome and duration
func RecordFetch(method string, outcome string, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}

	labels := map[string]string{
		"method":  strings.ToUpper(method),
		"outcome": outcome,
	}

	_ = observability.TelemetrySystem.Counter(FetchRequestsTotal, 1, labels)
	_ = observability.TelemetrySystem.Histogram(FetchDuration, duration, labels)
}

// RecordNotification counts notifications shown, by kind
func RecordNotification(kind string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			NotificationsTotal,
			1,
			map[string]string{"kind": kind},
		)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}
