// Package server exposes the suggestion service over HTTP and WebSocket.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/p-n-ai/pai-suggest/internal/catalog"
	"github.com/p-n-ai/pai-suggest/internal/recommend"
)

const readyTimeout = 3 * time.Second

// Suggester answers suggestion requests.
type Suggester interface {
	Suggest(ctx context.Context, req recommend.Request) ([]recommend.Suggestion, error)
	Cached(ctx context.Context, elementID string) ([]recommend.Suggestion, bool, error)
}

// StatsSource reports catalog embedding coverage.
type StatsSource interface {
	Stats(ctx context.Context) (catalog.Stats, error)
}

// HealthChecker is a dependency probed by /readyz.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Config holds dependencies for the HTTP server.
type Config struct {
	Suggester Suggester
	Stats     StatsSource              // optional; nil disables /catalog/stats
	Checks    map[string]HealthChecker // probed by /readyz
	WSOrigins []string                 // extra origins allowed on /ws/suggestions
}

// Server routes HTTP requests to the suggestion service.
type Server struct {
	suggester Suggester
	stats     StatsSource
	checks    map[string]HealthChecker
	wsOrigins []string
}

// New creates a new server.
func New(cfg Config) *Server {
	return &Server{
		suggester: cfg.Suggester,
		stats:     cfg.Stats,
		checks:    cfg.Checks,
		wsOrigins: cfg.WSOrigins,
	}
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /suggestions", s.handleSuggest)
	mux.HandleFunc("GET /suggestions/{elementId}", s.handleCached)
	mux.HandleFunc("GET /types", handleTypes)
	mux.HandleFunc("GET /catalog/stats", s.handleStats)
	mux.HandleFunc("GET /ws/suggestions", s.handleWebSocket)
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.Handle("GET /metrics", promhttp.Handler())
	return logRequests(mux)
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, c := range s.checks {
		if err := c.HealthCheck(ctx); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]any{"status": "ready", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "not ready"
	}
	writeJSON(w, status, body)
}
