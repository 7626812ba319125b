package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/mdpsurvey/pkg/metrics"
)

// Version is reported by the health endpoint; set at build time.
var Version = "dev" //nolint:gochecknoglobals // overridden with -ldflags

// Counter reports how many responses are stored.
type Counter interface {
	Count(ctx context.Context) int
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
	Responses int       `json:"responses"`
}

// HealthHandler handles health check and metrics requests.
type HealthHandler struct {
	counter Counter
	started time.Time
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(counter Counter) *HealthHandler {
	return &HealthHandler{
		counter: counter,
		started: time.Now(),
		// Use our custom metrics registry to serve metrics
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /health requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   Version,
		Uptime:    time.Since(h.started).Seconds(),
	}
	if h.counter != nil {
		resp.Responses = h.counter.Count(r.Context())
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleMetrics handles GET /metrics requests with the Prometheus exposition.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
