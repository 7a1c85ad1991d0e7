package embeddingcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// NewQdrantCache and fetch/upsert require a live Qdrant instance and are
// exercised only through manual integration testing; these cover the pure
// helpers that do not need a connection.

func TestExtractHostStripsSchemeAndPort(t *testing.T) {
	assert.Equal(t, "localhost", extractHost("http://localhost:6334"))
	assert.Equal(t, "qdrant.internal", extractHost("https://qdrant.internal:6334"))
}

func TestExtractPortDefaultsWhenMissing(t *testing.T) {
	assert.Equal(t, 6334, extractPort("http://localhost"))
	assert.Equal(t, 6333, extractPort("http://localhost:6333"))
}

func TestPointIDIsDeterministic(t *testing.T) {
	a := pointID("node", "n1")
	b := pointID("node", "n1")
	c := pointID("node", "n2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
