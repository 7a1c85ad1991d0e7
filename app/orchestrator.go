package app

import (
	"context"
	"fmt"

	"github.com/JaimeStill/brainquery/app/lifecycle"
	"github.com/JaimeStill/brainquery/app/services"
	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/logger"
	"github.com/JaimeStill/brainquery/internal/types"
)

// Orchestrator wires and manages every service's lifecycle.
type Orchestrator struct {
	registry *lifecycle.Registry
	config   *config.Config
	logger   *logger.Logger
	services map[string]services.Service
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(cfg *config.Config, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		registry: lifecycle.NewRegistry(log),
		config:   cfg,
		logger:   log,
		services: make(map[string]services.Service),
	}
}

// RegisterServices registers every managed service.
func (o *Orchestrator) RegisterServices(ctx context.Context) error {
	o.logger.Info("registering application services")

	brainService := services.NewBrainService(&o.config.Brain, o.logger)
	if err := o.registry.Register(brainService); err != nil {
		return fmt.Errorf("register brain service: %w", err)
	}
	o.services["brain"] = brainService

	embeddingCacheService := services.NewEmbeddingCacheService(&o.config.EmbeddingCache, o.logger)
	if err := o.registry.Register(embeddingCacheService); err != nil {
		return fmt.Errorf("register embedding_cache service: %w", err)
	}
	o.services["embedding_cache"] = embeddingCacheService

	embedderService := services.NewEmbedderService(&o.config.Embedder, o.logger)
	if err := o.registry.Register(embedderService); err != nil {
		return fmt.Errorf("register embedder service: %w", err)
	}
	o.services["embedder"] = embedderService

	llmService := services.NewLLMService(&o.config.LLM, o.logger)
	if err := o.registry.Register(llmService); err != nil {
		return fmt.Errorf("register llm service: %w", err)
	}
	o.services["llm"] = llmService

	queryService := services.NewQueryService(o.config, o.logger)
	if err := o.registry.Register(queryService); err != nil {
		return fmt.Errorf("register query service: %w", err)
	}
	o.services["query"] = queryService

	o.logger.Info("all services registered successfully", "service_count", len(o.services))
	return nil
}

// Initialize initializes services in dependency order, then wires the
// query service's dependencies.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.logger.Info("initializing application services")

	if err := o.registry.InitializeAll(ctx); err != nil {
		return fmt.Errorf("initialize base services: %w", err)
	}

	if err := o.injectDependencies(); err != nil {
		return fmt.Errorf("inject dependencies: %w", err)
	}

	o.logger.Info("all services initialized successfully")
	return nil
}

func (o *Orchestrator) injectDependencies() error {
	brainService := o.services["brain"].(*services.BrainService)
	embeddingCacheService := o.services["embedding_cache"].(*services.EmbeddingCacheService)
	embedderService := o.services["embedder"].(*services.EmbedderService)
	llmService := o.services["llm"].(*services.LLMService)
	queryService := o.services["query"].(*services.QueryService)

	if err := queryService.InitializeWithDependencies(brainService, embeddingCacheService, embedderService, llmService); err != nil {
		return fmt.Errorf("initialize query service with dependencies: %w", err)
	}

	return nil
}

// Start starts every registered service.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.logger.Info("starting application services")
	if err := o.registry.StartAll(ctx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}
	o.logger.Info("all services started successfully")
	return nil
}

// Stop gracefully stops every service.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.logger.Info("stopping application services")
	if err := o.registry.StopAll(ctx); err != nil {
		o.logger.Error("failed to stop some services", "error", err)
		return fmt.Errorf("stop services: %w", err)
	}
	o.logger.Info("all services stopped successfully")
	return nil
}

// HealthCheck runs every engine component's health check.
func (o *Orchestrator) HealthCheck(ctx context.Context) error {
	report := o.registry.HealthCheckAll(ctx)

	unhealthy := report.Unhealthy()
	for _, name := range unhealthy {
		o.logger.Error("engine component health check failed", "component", name, "error", report.Results[name], "checked_at", report.CheckedAt)
	}

	if len(unhealthy) > 0 {
		return fmt.Errorf("health check failed for components: %v", unhealthy)
	}

	o.logger.Info("all engine components are healthy", "checked_at", report.CheckedAt)
	return nil
}

// Query is the convenience entry point cmd/brainqueryd uses to answer one
// query through the fully-wired service graph.
func (o *Orchestrator) Query(ctx context.Context, q string, opts types.QueryOptions) (types.QueryResult, error) {
	queryService, ok := o.services["query"].(*services.QueryService)
	if !ok {
		return types.QueryResult{}, fmt.Errorf("query service unavailable")
	}
	return queryService.Query(ctx, q, opts)
}
