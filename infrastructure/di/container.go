package di

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"notelink-backend/application/services"
	"notelink-backend/infrastructure/config"
	"notelink-backend/infrastructure/neo4j"
	"notelink-backend/infrastructure/ollama"
	"notelink-backend/interfaces/http/rest"
	"notelink-backend/interfaces/http/rest/handlers"
	"notelink-backend/pkg/auth"
	"notelink-backend/pkg/ratelimit"
)

// Container wires the application together. Construction is explicit and
// ordered; anything that fails to initialize aborts startup.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Graph *neo4j.Graph

	BlockService   *services.BlockService
	LinkService    *services.LinkService
	SearchService  *services.SearchService
	ProjectService *services.ProjectService
	Tasks          *services.AsyncRunner

	Handler http.Handler
}

// NewContainer builds the full dependency graph from configuration.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	graph, err := neo4j.NewGraph(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing graph store: %w", err)
	}

	blockRepo := neo4j.NewBlockRepository(graph, logger)
	traceRepo := neo4j.NewTraceRepository(graph, logger)
	projectRepo := neo4j.NewProjectRepository(graph, logger)

	ollamaClient := ollama.New(cfg.OllamaBaseURL, cfg.ModelTimeout)
	embedder := ollama.NewEmbeddingProvider(ollamaClient, cfg.EmbeddingModel)
	answerModel := ollama.NewAnswerProvider(ollamaClient, cfg.ChatModel)

	tasks := services.NewAsyncRunner(logger, cfg.TaskTimeout)
	embedLimiter := ratelimit.New(cfg.EmbedRateLimit, cfg.EmbedRateWindow)

	linkService := services.NewLinkService(blockRepo, traceRepo, cfg.LinkPairDelay, logger)
	blockService := services.NewBlockService(blockRepo, embedder, linkService, tasks, embedLimiter, cfg.ImportConcurrency, logger)
	searchService := services.NewSearchService(blockRepo, embedder, answerModel, logger)
	projectService := services.NewProjectService(projectRepo, logger)

	secret := cfg.JWTSecret
	if secret == "" && cfg.IsDevelopment() {
		secret = "development-secret-change-in-production"
		logger.Warn("JWT_SECRET not set, using development secret")
	}
	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing jwt validator: %w", err)
	}

	blockHandler := handlers.NewBlockHandler(blockService, linkService, searchService, cfg.SearchThreshold, logger)
	metricsHandler := handlers.NewMetricsHandler(linkService, logger)
	projectHandler := handlers.NewProjectHandler(projectService, logger)

	router := rest.NewRouter(cfg, validator, blockHandler, metricsHandler, projectHandler, graph, logger)

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Graph:          graph,
		BlockService:   blockService,
		LinkService:    linkService,
		SearchService:  searchService,
		ProjectService: projectService,
		Tasks:          tasks,
		Handler:        router.Setup(),
	}, nil
}

// Shutdown drains background tasks and releases connections.
func (c *Container) Shutdown(ctx context.Context) error {
	c.Tasks.Wait()
	return c.Graph.Close(ctx)
}
