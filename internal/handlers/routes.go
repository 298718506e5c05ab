package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vaughan-dsouza/lmsauth/internal/logging"
	"github.com/vaughan-dsouza/lmsauth/internal/metrics"
	"github.com/vaughan-dsouza/lmsauth/internal/middleware"
)

// NewRouter wires every route of the service.
func NewRouter(h *Handler, authn middleware.Authenticator, m *metrics.Metrics, log logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(log))
	r.Use(m.Middleware)
	r.Use(middleware.Recoverer(log))

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	// Pages
	r.Get("/", h.Pages.Welcome)
	r.Get("/register", h.Pages.Register)
	r.Get("/login", h.Pages.Login)
	r.With(middleware.OptionalAuth(authn)).Get("/dashboard", h.Pages.Dashboard)

	// Public API
	r.Post("/api/register", h.Auth.Register)
	r.Post("/api/login", h.Auth.Login)

	// Protected API
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(authn))

		r.Get("/api/profile", h.Auth.Profile)
	})

	// Ops
	r.Get("/healthz", h.Health.Healthz)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	return r
}
