package services

import (
	"context"
	"fmt"
	"time"

	"github.com/JaimeStill/brainquery/internal/actiondetector"
	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/contextbuilder"
	"github.com/JaimeStill/brainquery/internal/insights"
	"github.com/JaimeStill/brainquery/internal/logger"
	"github.com/JaimeStill/brainquery/internal/pgs"
	"github.com/JaimeStill/brainquery/internal/query"
	"github.com/JaimeStill/brainquery/internal/querycache"
	"github.com/JaimeStill/brainquery/internal/ranker"
	"github.com/JaimeStill/brainquery/internal/session"
	"github.com/JaimeStill/brainquery/internal/types"
)

// QueryService is the top-level managed service a caller talks to. It
// depends on brain, embedding_cache, embedder, and llm, and assembles
// every other internal collaborator (ranker, context builder, query
// cache, session tracker, action detector, evidence/insight analyzers,
// and the PGS executor) once those four are available.
type QueryService struct {
	BaseService
	cfg *config.Config
	log *logger.Logger

	brain          *BrainService
	embeddingCache *EmbeddingCacheService
	embedderSvc    *EmbedderService
	llmSvc         *LLMService

	engine *query.Engine
}

// NewQueryService creates a QueryService declaring its dependencies for
// the registry's topological initialization order.
func NewQueryService(cfg *config.Config, log *logger.Logger) *QueryService {
	return &QueryService{
		BaseService: NewBaseService("query", "brain", "embedding_cache", "embedder", "llm"),
		cfg:         cfg,
		log:         log,
	}
}

func (s *QueryService) Initialize(ctx context.Context) error {
	if s.IsInitialized() {
		return nil
	}
	s.SetInitialized(true)
	return nil
}

// InitializeWithDependencies wires the fully-assembled query engine once
// its four injected dependencies have themselves initialized.
func (s *QueryService) InitializeWithDependencies(brain *BrainService, embeddingCache *EmbeddingCacheService, embedderSvc *EmbedderService, llmSvc *LLMService) error {
	s.brain = brain
	s.embeddingCache = embeddingCache
	s.embedderSvc = embedderSvc
	s.llmSvc = llmSvc

	rk := ranker.New(&s.cfg.Ranker)
	cb := contextbuilder.New(&s.cfg.ContextBuilder, s.log)
	qc := querycache.New(&s.cfg.QueryCache)
	sessions := session.New(&s.cfg.Session)
	detector := actiondetector.NewChain()
	insightsSynth := insights.New(&s.cfg.Evidence)

	partitioner := pgs.New(&s.cfg.PGS)
	pgsCache := pgs.NewCache(&s.cfg.PGS, s.log)
	pgsSessions := pgs.NewSessionStore(&s.cfg.PGS, s.log)
	executor := pgs.NewExecutor(&s.cfg.PGS, partitioner, pgsCache, pgsSessions, llmSvc.LLM(), s.log)

	s.engine = query.New(query.Dependencies{
		Embedder:    embedderSvc.Embedder(),
		LLM:         llmSvc.LLM(),
		Ranker:      rk,
		Builder:     cb,
		QueryCache:  qc,
		Sessions:    sessions,
		Detector:    detector,
		PGS:         executor,
		Insights:    insightsSynth,
		ActionCfg:   &s.cfg.ActionDetector,
		EvidenceCfg: &s.cfg.Evidence,
	}, s.log)

	return nil
}

func (s *QueryService) Start(ctx context.Context) error {
	if s.engine == nil {
		return fmt.Errorf("query service dependencies not injected")
	}
	s.SetRunning(true)
	return nil
}

func (s *QueryService) Stop(ctx context.Context) error {
	s.SetRunning(false)
	return nil
}

func (s *QueryService) HealthCheck(ctx context.Context) error {
	if s.engine == nil {
		return fmt.Errorf("query service not ready")
	}
	return nil
}

// Query loads the current brain state fresh, resolves the embedding
// cache for that state's hash, and answers one query end to end.
func (s *QueryService) Query(ctx context.Context, q string, opts types.QueryOptions) (types.QueryResult, error) {
	state, thoughts, _, _, err := s.brain.Load(ctx)
	if err != nil {
		return types.QueryResult{}, fmt.Errorf("query: %w", err)
	}

	cache := s.embeddingCache.ForState(state.StateHash())
	instanceCounts := instanceThoughtCounts(thoughts)

	return s.engine.Query(ctx, query.Input{
		State:       state,
		Thoughts:    thoughts,
		Query:       q,
		Options:     opts,
		Now:         time.Now(),
		BrainRoot:   s.brain.RootPath(),
		InstanceCnt: instanceCounts,
		Cache:       cache,
	})
}

func instanceThoughtCounts(thoughts []*types.Thought) map[string]int {
	counts := make(map[string]int)
	for _, t := range thoughts {
		if t.InstanceID == "" {
			continue
		}
		counts[t.InstanceID]++
	}
	return counts
}
