package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rdapgate/internal/platform/middleware"
	"rdapgate/internal/token"
)

// NewRouter wires all endpoints. Lookup endpoints are public; cache and audit
// administration require an admin-scoped token.
func NewRouter(h *Handler, validator middleware.JWTValidator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/domain/{name}", h.handleDomain)
	r.Get("/ip/*", h.handleIP)
	r.Get("/autnum/{asn}", h.handleAutnum)

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(middleware.ContentTypeJSON)
		admin.Use(middleware.RequireAuth(validator, token.ScopeAdmin, logger))
		admin.Delete("/cache", h.handleCacheInvalidate)
		admin.Get("/audit", h.handleAuditEvents)
	})

	return r
}
