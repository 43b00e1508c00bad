// Package transport assembles the full HTTP surface: feature routers,
// health, and metrics.
package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"simkah/internal/transport/http/shared"
)

// Registrar is implemented by every feature handler.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports readiness of one dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Config carries everything the router needs.
type Config struct {
	Logger   *slog.Logger
	Handlers []Registrar

	// Checks maps a dependency name to its health probe; all must pass for
	// /healthz to return 200.
	Checks map[string]HealthChecker
}

// NewRouter wires all endpoints.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", healthHandler(cfg))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range cfg.Handlers {
		h.Register(r)
	}
	return r
}

func healthHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(cfg.Checks))
		for name, check := range cfg.Checks {
			if err := check.Health(ctx); err != nil {
				cfg.Logger.WarnContext(ctx, "health check failed",
					"dependency", name,
					"error", err.Error(),
				)
				deps[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		body := map[string]any{"status": "ok", "dependencies": deps}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		shared.WriteJSON(w, status, body)
	}
}
