package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitsForKnownAndUnknownModel(t *testing.T) {
	known := LimitsFor("claude-sonnet-4")
	assert.Equal(t, ModelLimits{ContextWindowTokens: 200_000, MaxNodes: 4000}, known)

	unknown := LimitsFor("some-future-model")
	assert.Equal(t, DefaultModelLimits, unknown)
}

func TestModeProfilesCoverEveryMode(t *testing.T) {
	for _, mode := range []Mode{ModeQuick, ModeFull, ModeExpert, ModeDive, ModeReport, ModeGrounded, ModeExecutive} {
		profile, ok := ModeProfiles[mode]
		assert.Truef(t, ok, "mode %s missing from ModeProfiles", mode)
		assert.Equal(t, mode, profile.Mode)
	}
}

func TestExecutiveModeHasNoBrainAccess(t *testing.T) {
	profile := ModeProfiles[ModeExecutive]
	assert.False(t, profile.BrainAccess)
	assert.Zero(t, profile.BaseLimit)
}
