// Package embedder defines the embedding collaborator contract (spec.md
// §6) and an HTTP-backed default provider in the same shape as
// internal/llm's HTTPProvider.
package embedder

import "context"

// Embedder produces a fixed-dimension vector for a piece of text, or
// reports unavailability so the caller can degrade to keyword-only
// ranking (spec.md §6, §7 ErrEmbeddingUnavailable).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}
