package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/panelkit/panelkit/internal/errors"
	"github.com/panelkit/panelkit/internal/observability"
)

var metricsProxyClient = &http.Client{
	Timeout: 5 * time.Second,
}

// MetricsHandler relays the Prometheus exporter's output so /metrics can be
// scraped from the main listener.
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	if observability.PrometheusExporter == nil {
		respondWithError(w, r, apperrors.NewServiceUnavailableError("metrics exporter not initialized"))
		return
	}

	port := observability.GetMetricsPort()
	if port == 0 {
		port = observability.DefaultMetricsPort
	}
	metricsURL := fmt.Sprintf("http://127.0.0.1:%d/metrics", port)

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, metricsURL, nil)
	if err != nil {
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "unable to construct metrics request"))
		return
	}
	if accept := r.Header.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := metricsProxyClient.Do(req)
	if err != nil {
		respondWithError(w, r, apperrors.WrapExternalService(r.Context(), err, "prometheus exporter unavailable"))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	copyEndToEnd(w.Header(), resp.Header)
	if resp.Header.Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	}

	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		if logger := observability.Logger(); logger != nil {
			logger.Warn("Failed to relay metrics response", zap.Error(err))
		}
	}
}
