package metrics

import (
	"strconv"

	"github.com/panelkit/panelkit/internal/observability"
)

// Error metric names
const (
	HTTPErrorsTotal    = "http_errors_total"
	PanicsRecovered    = "panics_recovered_total"
	UpstreamErrorTotal = "upstream_errors_total"
)

// RecordHTTPError counts an error response by route pattern, code and status.
func RecordHTTPError(route string, errorCode string, httpStatus int) {
	if observability.TelemetrySystem == nil {
		return
	}

	if route == "" {
		route = "unmatched"
	}
	_ = observability.TelemetrySystem.Counter(HTTPErrorsTotal, 1, map[string]string{
		"route":       route,
		"error_code":  errorCode,
		"http_status": strconv.Itoa(httpStatus),
	})
}

// RecordPanic counts a recovered handler panic
func RecordPanic() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(PanicsRecovered, 1, nil)
	}
}

// RecordUpstreamError counts a proxied request that failed upstream.
// status is 0 for transport failures.
func RecordUpstreamError(status int) {
	if observability.TelemetrySystem == nil {
		return
	}

	label := "transport"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	_ = observability.TelemetrySystem.Counter(UpstreamErrorTotal, 1, map[string]string{
		"upstream_status": label,
	})
}
