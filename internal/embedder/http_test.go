package embedder

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
	"github.com/JaimeStill/brainquery/internal/types"
)

func testEmbedderLogger() *logger.Logger {
	return logger.New(&config.LoggingConfig{Level: "error", Format: "text"})
}

func TestHTTPEmbedderEmbedSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[0.1,0.2,0.3]}`))
	}))
	defer srv.Close()

	cfg := &config.EmbedderConfig{Provider: "ollama", URL: srv.URL, Model: "test-embed", Dimension: 3, Timeout: 5 * time.Second}
	e := NewHTTPEmbedder(cfg, testEmbedderLogger())

	v, err := e.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, v)
	assert.Equal(t, 3, e.Dimension())
}

func TestHTTPEmbedderDimensionMismatchIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[0.1,0.2]}`))
	}))
	defer srv.Close()

	cfg := &config.EmbedderConfig{Provider: "ollama", URL: srv.URL, Model: "test-embed", Dimension: 3, Timeout: 5 * time.Second}
	e := NewHTTPEmbedder(cfg, testEmbedderLogger())

	_, err := e.Embed(context.Background(), "some text")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrEmbeddingUnavailable)
}

func TestHTTPEmbedderNonOKStatusIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := &config.EmbedderConfig{Provider: "ollama", URL: srv.URL, Model: "test-embed", Dimension: 3, Timeout: 5 * time.Second}
	e := NewHTTPEmbedder(cfg, testEmbedderLogger())

	_, err := e.Embed(context.Background(), "some text")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrEmbeddingUnavailable)
}
