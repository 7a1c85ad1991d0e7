package actiondetector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCreateFileCapturesLanguage(t *testing.T) {
	chain := NewChain()
	det := chain.Detect(context.Background(), "please create a python file for this")

	assert.True(t, det.Detected)
	assert.Equal(t, ActionCreateFile, det.Action)
	assert.Equal(t, "python", det.Metadata["language"])
}

func TestDetectWriteFile(t *testing.T) {
	chain := NewChain()
	det := chain.Detect(context.Background(), "write this to a file please")

	assert.True(t, det.Detected)
	assert.Equal(t, ActionWriteFile, det.Action)
}

func TestDetectSpawnAgentTakesPriorityOverLaterRules(t *testing.T) {
	chain := NewChain()
	det := chain.Detect(context.Background(), "spawn an agent to list the files")

	assert.Equal(t, ActionSpawnAgent, det.Action)
}

func TestDetectListFiles(t *testing.T) {
	chain := NewChain()
	det := chain.Detect(context.Background(), "list the files in this directory")

	assert.True(t, det.Detected)
	assert.Equal(t, ActionListFiles, det.Action)
}

func TestDetectNoMatchReturnsUndetected(t *testing.T) {
	chain := NewChain()
	det := chain.Detect(context.Background(), "what is the capital of france?")

	assert.False(t, det.Detected)
}

func TestInferLanguageFallsBackToTextWhenNoHint(t *testing.T) {
	assert.Equal(t, "text", inferLanguage("", "create a file please"))
}

func TestInferLanguageScansQueryWhenHintEmpty(t *testing.T) {
	assert.Equal(t, "yaml", inferLanguage("", "create a file with yaml contents"))
}
