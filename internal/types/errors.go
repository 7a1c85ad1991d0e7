package types

import "errors"

// Error kinds from spec.md §7. Every recoverable condition is wrapped with
// one of these via fmt.Errorf("...: %w", Err...) so callers can test with
// errors.Is rather than matching on message text.
var (
	// ErrStateUnavailable: the brain snapshot is missing or corrupt.
	// Fatal to the query in progress.
	ErrStateUnavailable = errors.New("brain state unavailable")

	// ErrEmbeddingUnavailable: the embedding collaborator is absent or its
	// transport failed. Recovered locally by degrading to keyword-only
	// ranking.
	ErrEmbeddingUnavailable = errors.New("embedding collaborator unavailable")

	// ErrCacheCorrupt: an embedding/partition/session cache file could not
	// be parsed. Recovered locally by treating the cache as empty and
	// regenerating it.
	ErrCacheCorrupt = errors.New("cache unreadable")

	// ErrSweepFailed: a single PGS sweep errored or timed out. Recovered
	// locally by excluding the partition from synthesis.
	ErrSweepFailed = errors.New("pgs sweep failed")

	// ErrAllSweepsFailed: every sweep in a PGS run failed. The executor
	// falls back to the non-PGS query path on the same query.
	ErrAllSweepsFailed = errors.New("all pgs sweeps failed")

	// ErrLLMFailed: the LLM collaborator exhausted its retry budget.
	// Surfaced to the caller as a normal response envelope with
	// hadError=true, never as a panic or bare error return across the
	// query boundary.
	ErrLLMFailed = errors.New("llm generation failed")

	// ErrInputInvalid: the requested mode is not in the mode matrix. Fatal,
	// with a descriptive message attached by the caller via fmt.Errorf.
	// Unknown model names are not rejected (they resolve to
	// DefaultModelLimits), and follow-up context is not validated.
	ErrInputInvalid = errors.New("invalid input")
)
