package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/logger"
)

func testLLMLogger() *logger.Logger {
	return logger.New(&config.LoggingConfig{Level: "error", Format: "text"})
}

func TestHTTPProviderGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"hello from the model","done":true,"prompt_eval_count":10,"eval_count":5}`))
	}))
	defer srv.Close()

	cfg := &config.LLMConfig{
		Provider:      "ollama",
		URL:           srv.URL,
		Model:         "test-model",
		Timeout:       5 * time.Second,
		MaxRetries:    0,
		RetryBaseWait: time.Millisecond,
		RetryFactor:   2,
	}
	p := NewHTTPProvider(cfg, testLLMLogger())

	resp, err := p.Generate(context.Background(), Request{Input: "say hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello from the model", resp.Content)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestHTTPProviderGenerateRetriesThenFails(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := &config.LLMConfig{
		Provider:      "ollama",
		URL:           srv.URL,
		Model:         "test-model",
		Timeout:       5 * time.Second,
		MaxRetries:    2,
		RetryBaseWait: time.Millisecond,
		RetryFactor:   1,
	}
	p := NewHTTPProvider(cfg, testLLMLogger())

	resp, err := p.Generate(context.Background(), Request{Input: "say hello"})
	require.Error(t, err)
	assert.True(t, resp.HadError)
	assert.Equal(t, 3, calls)
}

func TestHTTPProviderGenerateDeliversOnChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"streamed text","done":true}`))
	}))
	defer srv.Close()

	cfg := &config.LLMConfig{
		Provider: "ollama", URL: srv.URL, Model: "test-model",
		Timeout: 5 * time.Second, RetryBaseWait: time.Millisecond, RetryFactor: 2,
	}
	p := NewHTTPProvider(cfg, testLLMLogger())

	var chunks []Chunk
	_, err := p.Generate(context.Background(), Request{
		Input:   "say hello",
		OnChunk: func(c Chunk) { chunks = append(chunks, c) },
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "streamed text", chunks[0].Text)
}
