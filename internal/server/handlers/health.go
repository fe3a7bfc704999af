package handlers

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/errors"

	apperrors "github.com/panelkit/panelkit/internal/errors"
	"github.com/panelkit/panelkit/internal/metrics"
)

// Check results
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusTimeout   = "timeout"
)

// HealthResponse is the aggregate /health body.
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProbeResponse is the body of the live/ready/startup probes.
type ProbeResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthChecker is a component that can report its own health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// CheckerFunc adapts a function to HealthChecker.
type CheckerFunc func(ctx context.Context) error

// CheckHealth calls f.
func (f CheckerFunc) CheckHealth(ctx context.Context) error {
	return f(ctx)
}

// HealthManager runs registered checks for the health endpoints.
type HealthManager struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
	version  string
	started  bool
}

// NewHealthManager returns a manager reporting version.
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		checkers: make(map[string]HealthChecker),
		version:  version,
	}
}

// RegisterChecker adds or replaces the check called name.
func (hm *HealthManager) RegisterChecker(name string, checker HealthChecker) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checkers[name] = checker
}

// MarkStarted flips the startup probe to passing.
func (hm *HealthManager) MarkStarted() {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.started = true
}

func (hm *HealthManager) runChecks(ctx context.Context) map[string]string {
	hm.mu.RLock()
	names := make([]string, 0, len(hm.checkers))
	for name := range hm.checkers {
		names = append(names, name)
	}
	checkers := make(map[string]HealthChecker, len(hm.checkers))
	for name, checker := range hm.checkers {
		checkers[name] = checker
	}
	hm.mu.RUnlock()
	sort.Strings(names)

	results := make(map[string]string, len(names))
	for _, name := range names {
		if ctx.Err() != nil {
			results[name] = StatusTimeout
			continue
		}

		start := time.Now()
		err := checkers[name].CheckHealth(ctx)
		metrics.RecordHealthCheck(name, err == nil, time.Since(start))
		if err != nil {
			results[name] = StatusUnhealthy
		} else {
			results[name] = StatusHealthy
		}
	}
	return results
}

func overallStatus(checks map[string]string) string {
	status := StatusHealthy
	for _, result := range checks {
		switch result {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded, StatusTimeout:
			status = StatusDegraded
		}
	}
	return status
}

// HealthHandler serves the aggregate report.
func (hm *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := hm.runChecks(ctx)
	status := overallStatus(checks)
	if status == StatusUnhealthy {
		respondWithError(w, r, probeFailure("aggregate", status, checks))
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Version:   hm.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// LivenessHandler passes while the process can serve requests at all.
func (hm *HealthManager) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ProbeResponse{Status: StatusHealthy, Timestamp: time.Now().UTC()})
}

// ReadinessHandler passes while every registered check passes.
func (hm *HealthManager) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	hm.probe(w, r, "ready", 5*time.Second)
}

// StartupHandler passes once MarkStarted was called and checks pass.
func (hm *HealthManager) StartupHandler(w http.ResponseWriter, r *http.Request) {
	hm.mu.RLock()
	started := hm.started
	hm.mu.RUnlock()

	if !started {
		respondWithError(w, r, probeFailure("startup", "starting", nil))
		return
	}
	hm.probe(w, r, "startup", 3*time.Second)
}

func (hm *HealthManager) probe(w http.ResponseWriter, r *http.Request, name string, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	checks := hm.runChecks(ctx)
	status := overallStatus(checks)
	if status == StatusUnhealthy {
		respondWithError(w, r, probeFailure(name, status, checks))
		return
	}
	writeJSON(w, http.StatusOK, ProbeResponse{Status: status, Timestamp: time.Now().UTC()})
}

func probeFailure(probe, status string, checks map[string]string) *errors.ErrorEnvelope {
	details := map[string]interface{}{
		"probe":  probe,
		"status": status,
	}
	if len(checks) > 0 {
		details["checks"] = checks
	}

	var failing []string
	for name, result := range checks {
		if result != StatusHealthy {
			failing = append(failing, name)
		}
	}
	sort.Strings(failing)

	envelope := apperrors.NewServiceUnavailableError(probe + " health check failed").WithDetails(details)
	if len(failing) > 0 {
		if updated, err := envelope.WithContext(map[string]interface{}{"unhealthy_checks": failing}); err == nil {
			envelope = updated
		}
	}
	return envelope
}
