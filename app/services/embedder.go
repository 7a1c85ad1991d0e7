package services

import (
	"context"
	"fmt"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/embedder"
	"github.com/JaimeStill/brainquery/internal/logger"
)

// EmbedderService wraps the embedding collaborator as a managed service.
type EmbedderService struct {
	BaseService
	cfg      *config.EmbedderConfig
	log      *logger.Logger
	embedder embedder.Embedder
}

// NewEmbedderService creates an EmbedderService.
func NewEmbedderService(cfg *config.EmbedderConfig, log *logger.Logger) *EmbedderService {
	return &EmbedderService{BaseService: NewBaseService("embedder"), cfg: cfg, log: log}
}

func (s *EmbedderService) Initialize(ctx context.Context) error {
	if s.IsInitialized() {
		return nil
	}
	s.embedder = embedder.NewHTTPEmbedder(s.cfg, s.log)
	s.SetInitialized(true)
	return nil
}

func (s *EmbedderService) Start(ctx context.Context) error {
	if !s.IsInitialized() {
		return fmt.Errorf("embedder service not initialized")
	}
	s.SetRunning(true)
	return nil
}

func (s *EmbedderService) Stop(ctx context.Context) error {
	s.SetRunning(false)
	return nil
}

func (s *EmbedderService) HealthCheck(ctx context.Context) error {
	if !s.IsInitialized() {
		return fmt.Errorf("embedder service not initialized")
	}
	return nil
}

// Embedder returns the underlying collaborator.
func (s *EmbedderService) Embedder() embedder.Embedder {
	return s.embedder
}
