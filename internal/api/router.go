package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/robert-malhotra/wapor-stac-proxy/internal/metrics"
)

// NewRouter creates and configures the HTTP router with all routes and
// middleware. The metrics endpoint and request metrics are enabled when m is
// not nil and metrics are enabled in the configuration.
func NewRouter(h *Handlers, logger *slog.Logger, m *metrics.Provider) chi.Router {
	r := chi.NewRouter()

	withMetrics := m != nil && h.cfg.Metrics.Enabled

	// Add middleware stack
	r.Use(middleware.RequestID)
	r.Use(RequestIDResponse) // Add X-Request-ID to response headers
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	if withMetrics {
		r.Use(Metrics(metrics.NewHTTP(m.Registerer())))
	}
	r.Use(Recovery(logger))
	r.Use(middleware.Compress(5)) // Gzip compression
	r.Use(ContentTypeJSON)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"}, // Allow all origins for STAC API
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", h.Health)

	if withMetrics {
		r.Method(http.MethodGet, h.cfg.Metrics.Path, m.Handler())
	}

	// STAC API routes
	r.Get("/", h.LandingPage)
	r.Get("/conformance", h.Conformance)

	r.Get("/collections", h.Collections)
	r.Get("/collections/{cubeCode}", h.Collection)
	r.Get("/collections/{cubeCode}/items", h.Items)
	r.Get("/collections/{cubeCode}/availability", h.Availability)
	r.Get("/collections/{cubeCode}/downloads", h.Downloads)

	r.Get("/locations", h.Locations)

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "endpoint not found")
	})

	// 405 handler
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "method not allowed")
	})

	return r
}
