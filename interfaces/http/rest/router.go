package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"notelink-backend/infrastructure/config"
	"notelink-backend/interfaces/http/rest/handlers"
	"notelink-backend/interfaces/http/rest/middleware"
	"notelink-backend/pkg/auth"
)

// ReadinessChecker reports whether a dependency can serve traffic.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

// Router creates and configures the HTTP router
type Router struct {
	cfg            *config.Config
	validator      *auth.JWTValidator
	blockHandler   *handlers.BlockHandler
	metricsHandler *handlers.MetricsHandler
	projectHandler *handlers.ProjectHandler
	readiness      ReadinessChecker
	logger         *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	validator *auth.JWTValidator,
	blockHandler *handlers.BlockHandler,
	metricsHandler *handlers.MetricsHandler,
	projectHandler *handlers.ProjectHandler,
	readiness ReadinessChecker,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:            cfg,
		validator:      validator,
		blockHandler:   blockHandler,
		metricsHandler: metricsHandler,
		projectHandler: projectHandler,
		readiness:      readiness,
		logger:         logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Device-ID", "X-Location"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health checks
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.logger))

		r.Route("/blocks", func(r chi.Router) {
			r.Post("/", rt.blockHandler.CreateBlock)
			r.Get("/", rt.blockHandler.ListBlocks)
			r.Get("/search", rt.blockHandler.Search)
			r.Post("/import", rt.blockHandler.ImportBlocks)
			r.Get("/recommended/{blockID}", rt.blockHandler.RecommendedBlocks)
			r.Get("/{blockID}", rt.blockHandler.GetBlock)
			r.Patch("/{blockID}", rt.blockHandler.UpdateBlock)
			r.Delete("/{blockID}", rt.blockHandler.DeleteBlock)
		})

		r.Route("/metrics", func(r chi.Router) {
			r.Post("/time/{blockID}", rt.metricsHandler.RecordTime)
			r.Post("/context/{blockID}", rt.metricsHandler.RecordContext)
			r.Post("/feedback/{blockID}", rt.metricsHandler.RecordFeedback)
			r.Post("/previous/{blockID}", rt.metricsHandler.RecordPrevious)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", rt.projectHandler.CreateProject)
			r.Get("/", rt.projectHandler.ListProjects)
			r.Get("/{projectID}", rt.projectHandler.GetProject)
			r.Patch("/{projectID}", rt.projectHandler.UpdateProject)
			r.Delete("/{projectID}", rt.projectHandler.DeleteProject)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck verifies the graph store is reachable
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := rt.readiness.Ping(ctx); err != nil {
		rt.logger.Warn("readiness check failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
