package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/logger"
	"github.com/JaimeStill/brainquery/internal/types"
)

// HTTPProvider is the default LLM implementation: an Ollama-compatible
// /api/generate endpoint with exponential backoff retries, grounded on
// the teacher's OllamaLLM.
type HTTPProvider struct {
	cfg    *config.LLMConfig
	client *http.Client
	log    *logger.Logger
}

// NewHTTPProvider builds the default HTTP LLM provider.
func NewHTTPProvider(cfg *config.LLMConfig, log *logger.Logger) *HTTPProvider {
	return &HTTPProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.WithComponent("llm"),
	}
}

type generateRequest struct {
	Model       string  `json:"model"`
	System      string  `json:"system,omitempty"`
	Prompt      string  `json:"prompt"`
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`

	PromptEvalCount int `json:"prompt_eval_count"`
	EvalCount       int `json:"eval_count"`
}

// Generate performs a single (non-streaming) generate call with retries.
// When req.OnChunk is non-nil, the full response is delivered as one
// terminal chunk: the HTTP provider does not speak Ollama's streaming NDJSON
// protocol, matching spec.md §9's note that cooperative streaming bridging
// is an external concern.
func (p *HTTPProvider) Generate(ctx context.Context, req Request) (Response, error) {
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	temperature := 0.7
	if req.ReasoningEffort != "" {
		// Extended-thinking providers require temperature=1 while reasoning
		// is enabled (spec.md §6).
		temperature = 1
	}

	body := generateRequest{
		Model:       model,
		System:      req.Instructions,
		Prompt:      req.Input,
		Stream:      false,
		Temperature: temperature,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: marshal request: %v", types.ErrLLMFailed, err)
	}

	var (
		result generateResponse
		lastErr error
	)

	wait := p.cfg.RetryBaseWait
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		result, lastErr = p.doRequest(ctx, payload)
		if lastErr == nil {
			break
		}

		p.log.Debug("generate attempt failed", "attempt", attempt, "error", lastErr)

		if attempt < p.cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(wait):
			}
			wait = time.Duration(float64(wait) * p.cfg.RetryFactor)
		}
	}

	if lastErr != nil {
		return Response{HadError: true, ErrorType: "provider_unavailable"},
			fmt.Errorf("%w: after %d attempts: %v", types.ErrLLMFailed, p.cfg.MaxRetries+1, lastErr)
	}

	if req.OnChunk != nil && result.Response != "" {
		req.OnChunk(Chunk{Type: ChunkTypeText, Text: result.Response})
	}

	return Response{
		Content: result.Response,
		Usage: &Usage{
			PromptTokens:     result.PromptEvalCount,
			CompletionTokens: result.EvalCount,
			TotalTokens:      result.PromptEvalCount + result.EvalCount,
		},
	}, nil
}

func (p *HTTPProvider) doRequest(ctx context.Context, payload []byte) (generateResponse, error) {
	url := p.cfg.URL + "/api/generate"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return generateResponse{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return generateResponse{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return generateResponse{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return generateResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return out, nil
}
