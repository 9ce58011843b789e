// Package httptransport assembles the admin API surface. Handlers stay thin
// and delegate to domain services; this package only wires routing and the
// shared middleware stack.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cardhandler "cardfleet/internal/cards/handler"
	fulfillmenthandler "cardfleet/internal/fulfillment/handler"
	"cardfleet/internal/platform/middleware"
)

// RouterConfig carries the pieces the router needs beyond the handlers
// themselves. Health, when set, is consulted by /healthz; nil means the
// process has no backing dependencies to probe.
type RouterConfig struct {
	AdminToken string
	Logger     *slog.Logger
	Health     func(ctx context.Context) error
}

// NewRouter wires health, metrics, and the admin endpoints. Everything under
// /admin sits behind the operator token check.
func NewRouter(cards *cardhandler.Handler, requests *fulfillmenthandler.Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestMetadata)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(req.Context()); err != nil {
				cfg.Logger.ErrorContext(req.Context(), "health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAdminToken(cfg.AdminToken, cfg.Logger))
		cards.Register(admin)
		requests.Register(admin)
	})

	return r
}
