package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/logger"
	"github.com/JaimeStill/brainquery/internal/types"
)

// HTTPEmbedder calls an Ollama-compatible /api/embeddings endpoint,
// grounded on the teacher's OllamaLLM.GenerateEmbedding.
type HTTPEmbedder struct {
	cfg    *config.EmbedderConfig
	client *http.Client
	log    *logger.Logger
}

// NewHTTPEmbedder builds the default HTTP embedding provider.
func NewHTTPEmbedder(cfg *config.EmbedderConfig, log *logger.Logger) *HTTPEmbedder {
	return &HTTPEmbedder{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.WithComponent("embedder"),
	}
}

func (e *HTTPEmbedder) Dimension() int {
	return e.cfg.Dimension
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed fetches a single embedding. Any transport or status failure is
// wrapped in ErrEmbeddingUnavailable so callers know to degrade rather
// than fail the query outright.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(embeddingRequest{Model: e.cfg.Model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", types.ErrEmbeddingUnavailable, err)
	}

	url := e.cfg.URL + "/api/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", types.ErrEmbeddingUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.log.Debug("embedding request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", types.ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", types.ErrEmbeddingUnavailable, resp.StatusCode)
	}

	var out embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", types.ErrEmbeddingUnavailable, err)
	}

	if len(out.Embedding) != e.cfg.Dimension {
		return nil, fmt.Errorf("%w: expected dimension %d, got %d", types.ErrEmbeddingUnavailable, e.cfg.Dimension, len(out.Embedding))
	}

	return out.Embedding, nil
}
