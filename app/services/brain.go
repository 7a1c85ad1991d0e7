package services

import (
	"context"
	"fmt"

	"github.com/JaimeStill/brainquery/internal/brainstore"
	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/logger"
	"github.com/JaimeStill/brainquery/internal/types"
)

// BrainService wraps the brain store as a managed service. It holds no
// cached snapshot: Load re-reads the on-disk state fresh so a running
// process always answers against the brain's current contents.
type BrainService struct {
	BaseService
	cfg   *config.BrainConfig
	log   *logger.Logger
	store *brainstore.Store
}

// NewBrainService creates a BrainService.
func NewBrainService(cfg *config.BrainConfig, log *logger.Logger) *BrainService {
	return &BrainService{BaseService: NewBaseService("brain"), cfg: cfg, log: log}
}

func (s *BrainService) Initialize(ctx context.Context) error {
	if s.IsInitialized() {
		return nil
	}
	s.store = brainstore.New(s.cfg, s.log)
	s.SetInitialized(true)
	return nil
}

func (s *BrainService) Start(ctx context.Context) error {
	if !s.IsInitialized() {
		return fmt.Errorf("brain service not initialized")
	}
	s.SetRunning(true)
	return nil
}

func (s *BrainService) Stop(ctx context.Context) error {
	s.SetRunning(false)
	return nil
}

func (s *BrainService) HealthCheck(ctx context.Context) error {
	if !s.IsInitialized() {
		return fmt.Errorf("brain service not initialized")
	}
	_, err := s.store.LoadState(ctx)
	return err
}

// Load reads the current state, thought log, live agent journals, and
// latest coordinator review from disk.
func (s *BrainService) Load(ctx context.Context) (*types.BrainState, []*types.Thought, []types.LiveEntry, *types.CoordinatorReview, error) {
	state, err := s.store.LoadState(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	thoughts, err := s.store.LoadThoughts(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	journals, err := s.store.LoadJournals(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	review, err := s.store.LoadReports(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	return state, thoughts, journals, review, nil
}

// Store exposes the underlying brainstore.Store for components (PGS cache
// paths, session paths) that need the configured root directly.
func (s *BrainService) Store() *brainstore.Store {
	return s.store
}

// RootPath returns the brain's root directory.
func (s *BrainService) RootPath() string {
	return s.cfg.RootPath
}
