// Package llm defines the LLM collaborator contract (spec.md §6) and an
// HTTP-backed default provider grounded on the teacher's
// src/pkg/llm/ollama.go retry/backoff shape.
package llm

import (
	"context"

	"github.com/JaimeStill/brainquery/internal/types"
)

// ReasoningEffort is an alias of types.ReasoningEffort, so callers of this
// package can name the effort level as llm.ReasoningEffort.
type ReasoningEffort = types.ReasoningEffort

// ChunkType distinguishes streamed events. Only "chunk" is produced today;
// the type exists so a future tool-call event can be added without
// breaking the Sink signature.
type ChunkType string

const ChunkTypeText ChunkType = "chunk"

// Chunk is a single streamed fragment of a generate call.
type Chunk struct {
	Type ChunkType
	Text string
}

// Sink receives streamed chunks. Nil is a valid Sink meaning "don't stream".
type Sink func(Chunk)

// ToolCall is an opaque provider tool invocation, passed through untouched.
type ToolCall struct {
	Name      string
	Arguments map[string]any
}

// Usage reports token accounting when the provider exposes it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Request is the single generate() call shape from spec.md §6.
type Request struct {
	Model            string
	Instructions     string
	Input            string
	MaxTokens        int
	ReasoningEffort  ReasoningEffort
	OnChunk          Sink
}

// Response is the unified generate() result. HadError/ErrorType let a
// caller distinguish a retryable provider hiccup from a fatal one without
// the provider leaking its own error types upstream (spec.md §9 "Retry
// policies").
type Response struct {
	Content    string
	Usage      *Usage
	ToolCalls  []ToolCall
	HadError   bool
	ErrorType  string
}

// LLM is the collaborator the core consumes for all text generation. The
// core never generates text itself (spec.md §1 Non-goals).
type LLM interface {
	Generate(ctx context.Context, req Request) (Response, error)
}
