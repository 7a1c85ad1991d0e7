package services

import (
	"context"
	"fmt"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/embeddingcache"
	"github.com/JaimeStill/brainquery/internal/logger"
)

// EmbeddingCacheService wraps the embedding cache backend (file or
// Qdrant, per cfg.Backend) as a managed service.
type EmbeddingCacheService struct {
	BaseService
	cfg   *config.EmbeddingCacheConfig
	log   *logger.Logger
	cache embeddingcache.Cache
}

// NewEmbeddingCacheService creates an EmbeddingCacheService.
func NewEmbeddingCacheService(cfg *config.EmbeddingCacheConfig, log *logger.Logger) *EmbeddingCacheService {
	return &EmbeddingCacheService{BaseService: NewBaseService("embedding_cache"), cfg: cfg, log: log}
}

// Initialize connects the configured backend. The file backend is
// re-opened per state hash by callers via ForState; the Qdrant backend is
// a long-lived client connection established once here.
func (s *EmbeddingCacheService) Initialize(ctx context.Context) error {
	if s.IsInitialized() {
		return nil
	}

	if s.cfg.Backend == "qdrant" {
		qc, err := embeddingcache.NewQdrantCache(ctx, s.cfg, s.log)
		if err != nil {
			return fmt.Errorf("initialize qdrant cache: %w", err)
		}
		s.cache = qc
	}

	s.SetInitialized(true)
	return nil
}

func (s *EmbeddingCacheService) Start(ctx context.Context) error {
	if !s.IsInitialized() {
		return fmt.Errorf("embedding cache service not initialized")
	}
	s.SetRunning(true)
	return nil
}

func (s *EmbeddingCacheService) Stop(ctx context.Context) error {
	s.SetRunning(false)
	return nil
}

func (s *EmbeddingCacheService) HealthCheck(ctx context.Context) error {
	if !s.IsInitialized() {
		return fmt.Errorf("embedding cache service not initialized")
	}
	return nil
}

// ForState returns the cache to use for a given brain state hash. For the
// file backend this loads (or creates) the hash-scoped cache file; for
// Qdrant it returns the shared client.
func (s *EmbeddingCacheService) ForState(stateHash string) embeddingcache.Cache {
	if s.cache != nil {
		return s.cache
	}
	return embeddingcache.Load(s.cfg, stateHash, s.log)
}
