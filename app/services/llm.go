package services

import (
	"context"
	"fmt"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/llm"
	"github.com/JaimeStill/brainquery/internal/logger"
)

// LLMService wraps the LLM collaborator as a managed service.
type LLMService struct {
	BaseService
	cfg *config.LLMConfig
	log *logger.Logger
	llm llm.LLM
}

// NewLLMService creates an LLMService.
func NewLLMService(cfg *config.LLMConfig, log *logger.Logger) *LLMService {
	return &LLMService{BaseService: NewBaseService("llm"), cfg: cfg, log: log}
}

func (s *LLMService) Initialize(ctx context.Context) error {
	if s.IsInitialized() {
		return nil
	}
	s.llm = llm.NewHTTPProvider(s.cfg, s.log)
	s.SetInitialized(true)
	return nil
}

func (s *LLMService) Start(ctx context.Context) error {
	if !s.IsInitialized() {
		return fmt.Errorf("llm service not initialized")
	}
	s.SetRunning(true)
	return nil
}

func (s *LLMService) Stop(ctx context.Context) error {
	s.SetRunning(false)
	return nil
}

func (s *LLMService) HealthCheck(ctx context.Context) error {
	if !s.IsInitialized() {
		return fmt.Errorf("llm service not initialized")
	}
	return nil
}

// LLM returns the underlying collaborator.
func (s *LLMService) LLM() llm.LLM {
	return s.llm
}
