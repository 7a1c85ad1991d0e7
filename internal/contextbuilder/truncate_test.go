package contextbuilder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateSentenceAwareUnderBudget(t *testing.T) {
	s := "short text"
	assert.Equal(t, s, truncateSentenceAware(s, 100))
}

func TestTruncateSentenceAwarePrefersSentenceBoundary(t *testing.T) {
	s := "This is the first sentence. This is the second sentence that runs long."
	out := truncateSentenceAware(s, 38)
	assert.True(t, strings.HasSuffix(out, "."))
	assert.LessOrEqual(t, len(out), 38)
}

func TestTruncateSentenceAwareFallsBackToSpace(t *testing.T) {
	s := strings.Repeat("word ", 20) // no sentence punctuation at all
	out := truncateSentenceAware(s, 30)
	assert.LessOrEqual(t, len(out), 30)
	assert.False(t, strings.HasSuffix(out, " "))
}

func TestTruncateSentenceAwareHardCutWhenNoBoundary(t *testing.T) {
	s := strings.Repeat("x", 100)
	out := truncateSentenceAware(s, 10)
	assert.Equal(t, 10, len(out))
}
