// Package httpapi serves the operations surface: health, readiness, metrics
// and the MCP SSE transport.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/rental-agent/internal/middleware"
	"github.com/Proton-105/rental-agent/pkg/logger"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Readiness reports per-component status. *health.Checker and *lifecycle.Probes implement it.
type Readiness interface {
	Check(ctx context.Context) (map[string]string, bool)
}

// Options configures the router. SSE and Message are mounted only when both are set.
type Options struct {
	Service string
	Version string
	Checker Readiness
	SSE     http.Handler
	Message http.Handler
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

type readyResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

type rootResponse struct {
	Message string `json:"message"`
}

type api struct {
	opts Options
	log  *slog.Logger
}

// NewRouter builds the chi router.
func NewRouter(opts Options, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	a := &api{opts: opts, log: log}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(logger.Middleware)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Metrics)

	r.Get("/", a.root)
	r.Get("/health", a.health)
	r.Get("/ready", a.ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if opts.SSE != nil && opts.Message != nil {
		r.Method(http.MethodGet, "/sse", opts.SSE)
		r.Method(http.MethodPost, "/message", opts.Message)
	}

	return r
}

func (a *api) root(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, r, http.StatusOK, rootResponse{Message: "Rental Agent Health Check Server"})
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, r, http.StatusOK, healthResponse{
		Status:  StatusHealthy,
		Service: a.opts.Service,
		Version: a.opts.Version,
	})
}

func (a *api) ready(w http.ResponseWriter, r *http.Request) {
	if a.opts.Checker == nil {
		a.writeJSON(w, r, http.StatusOK, readyResponse{Status: StatusHealthy, Components: map[string]string{}})
		return
	}

	results, healthy := a.opts.Checker.Check(r.Context())
	if !healthy {
		a.writeJSON(w, r, http.StatusServiceUnavailable, readyResponse{Status: StatusUnhealthy, Components: results})
		return
	}

	a.writeJSON(w, r, http.StatusOK, readyResponse{Status: StatusHealthy, Components: results})
}

func (a *api) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.log.ErrorContext(r.Context(), "failed to encode response", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
}
