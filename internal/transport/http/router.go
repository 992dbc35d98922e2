// Package httptransport assembles the HTTP surface. Handlers stay thin and
// delegate to domain services; cross-cutting concerns live in middleware.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cohort/internal/platform/metrics"
	"cohort/internal/platform/middleware"
)

// Registrar is implemented by each vertical's handler.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries everything the router needs wired in by main.
type Deps struct {
	Logger    *slog.Logger
	Validator middleware.JWTValidator
	Metrics   *metrics.Metrics
	Handlers  []Registrar
}

// NewRouter builds the full middleware chain and mounts all handlers.
// Everything except /healthz and /metrics requires a valid bearer token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Trace)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Latency(deps.Metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.ContentTypeJSON)
		protected.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		for _, h := range deps.Handlers {
			h.Register(protected)
		}
	})

	return r
}
