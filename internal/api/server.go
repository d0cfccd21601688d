// Package api provides the HTTP API server and handlers for the AgeTags server.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/listenupapp/agetags-server/internal/cache"
	"github.com/listenupapp/agetags-server/internal/store/sqlite"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    *sqlite.Store
	cache    *cache.RatingsCache
	services *Services
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// store and cache may be nil; health then reports them as not configured.
func NewServer(store *sqlite.Store, ratingsCache *cache.RatingsCache, services *Services, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		store:    store,
		cache:    ratingsCache,
		services: services,
		router:   router,
		logger:   logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("AgeTags API", "1.0.0")
	humaConfig.Info.Description = "Resolves minimum viewing ages from regional certifications and tags catalog titles."
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the underlying huma API.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
}

// registerRoutes configures all HTTP routes.
func (s *Server) registerRoutes() {
	// Prometheus exposition stays outside the envelope.
	s.router.Handle("/metrics", promhttp.Handler())

	s.registerHealthRoutes()
	s.registerCertificationRoutes()
	s.registerTitleRoutes()
	s.registerTaskRoutes()
	s.registerCacheRoutes()
}
