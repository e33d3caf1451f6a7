package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nl2sql-grounding/internal/handlers"
	"nl2sql-grounding/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	QueryService service.QueryService
	// LLM is checked by the health check.
	LLM handlers.ModelChecker
	// Metrics serves /metrics; defaults to the prometheus default registry.
	Metrics http.Handler
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	markdown := handlers.NewMarkdownRenderer()
	queryHandler := handlers.NewQueryHandler(deps.QueryService, markdown)
	schemaHandler := handlers.NewSchemaHandler(deps.QueryService, markdown)
	cacheHandler := handlers.NewCacheHandler(deps.QueryService)
	healthHandler := handlers.NewHealthHandler(deps.QueryService, deps.LLM)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)
		r.Route("/v1", func(r chi.Router) {
			r.Method(http.MethodPost, "/query", queryHandler)
			r.Method(http.MethodPost, "/schema", schemaHandler)
			r.Method(http.MethodGet, "/cache", cacheHandler)
			r.Method(http.MethodDelete, "/cache", cacheHandler)
		})
	})

	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	return r
}
