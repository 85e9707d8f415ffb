package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"flowradar/pkg/logger"
)

// CheckFunc probes one backing component
type CheckFunc func(ctx context.Context) error

// Handler provides health check endpoints. Components register their
// probes at bootstrap; disabled backends simply never register.
type Handler struct {
	log         *logger.Logger
	startTime   time.Time
	serviceName string
	version     string

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// New creates a new health check handler
func New(serviceName, version string) *Handler {
	return &Handler{
		log:         logger.Get().With("component", "health"),
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
		checks:      make(map[string]CheckFunc),
	}
}

// Register adds a named component probe
func (h *Handler) Register(name string, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = fn
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // "healthy", "degraded", "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 OK if service is running.
// Used by Kubernetes liveness probe.
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}

// HandleReadiness checks if service is ready to accept traffic.
// Any failing component makes the service not ready.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks, healthy, total := h.runChecks(ctx)

	status := h.status(checks, "healthy")
	statusCode := http.StatusOK
	if healthy < total {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
		h.log.Warnw("Readiness check failed", "checks", checks)
	}

	writeJSON(w, statusCode, status)
}

// HandleHealth returns detailed health status. A partially degraded
// service still answers 200 so dashboards can read the detail.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	checks, healthy, total := h.runChecks(ctx)

	status := h.status(checks, "healthy")
	statusCode := http.StatusOK

	if total > 0 && healthy == 0 {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	} else if healthy < total {
		status.Status = "degraded"
	}

	writeJSON(w, statusCode, status)
}

// runChecks probes every registered component
func (h *Handler) runChecks(ctx context.Context) (map[string]ComponentHealth, int, int) {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	fns := make(map[string]CheckFunc, len(h.checks))
	for name, fn := range h.checks {
		fns[name] = fn
	}
	h.mu.RUnlock()
	sort.Strings(names)

	checks := make(map[string]ComponentHealth, len(names))
	healthy := 0
	for _, name := range names {
		ch := h.probe(ctx, name, fns[name])
		checks[name] = ch
		if ch.Status == "healthy" {
			healthy++
		}
	}
	return checks, healthy, len(names)
}

func (h *Handler) probe(ctx context.Context, name string, fn CheckFunc) ComponentHealth {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	if err != nil {
		h.log.Errorw("Component health check failed", "component", name, "error", err, "elapsed", elapsed)
		return ComponentHealth{
			Status:       "unhealthy",
			ResponseTime: elapsed.String(),
			Error:        err.Error(),
		}
	}
	return ComponentHealth{
		Status:       "healthy",
		ResponseTime: elapsed.String(),
	}
}

func (h *Handler) status(checks map[string]ComponentHealth, overall string) HealthStatus {
	return HealthStatus{
		Status:    overall,
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
