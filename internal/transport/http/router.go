// Package httptransport assembles the HTTP router from the per-domain
// handlers. Transport concerns stay here; business logic lives in the
// internal services.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/internal/platform/middleware"
)

// Registrar is implemented by each domain handler.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker is any backend whose liveness feeds /healthz.
type HealthChecker func(r *http.Request) error

// NewRouter wires the middleware chain, operational endpoints and every
// domain handler's routes.
func NewRouter(logger *slog.Logger, health HealthChecker, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health(req); err != nil {
				logger.ErrorContext(req.Context(), "health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}
