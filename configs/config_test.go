package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfigDefaults(t *testing.T) {
	// The default word weights 0.7 and 0.3 do not sum to exactly 1.0 in
	// binary; validation must accept them.
	require.NoError(t, ValidateConfig(GetDefaultConfig()))
}

func TestValidateConfigWeightRounding(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Scoring.PronunciationWeight = 33.3
	cfg.Scoring.TimingWeight = 33.3
	cfg.Scoring.PitchWeight = 33.4
	assert.NoError(t, ValidateConfig(cfg))

	cfg.Scoring.TextWeight = 0.55
	cfg.Scoring.MFCCWeight = 0.45
	assert.NoError(t, ValidateConfig(cfg))
}

func TestValidateConfigRejectsBadWeights(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Scoring.PitchWeight = 40
	assert.ErrorContains(t, ValidateConfig(cfg), "sum to 100")

	cfg = GetDefaultConfig()
	cfg.Scoring.MFCCWeight = 0.5
	assert.ErrorContains(t, ValidateConfig(cfg), "sum to 1")
}

func TestValidateConfigBounds(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Audio.SampleRate = 0
	assert.Error(t, ValidateConfig(cfg))

	cfg = GetDefaultConfig()
	cfg.Audio.PitchCeiling = cfg.Audio.PitchFloor
	assert.Error(t, ValidateConfig(cfg))

	cfg = GetDefaultConfig()
	cfg.Alignment.LCSThreshold = 1.2
	assert.Error(t, ValidateConfig(cfg))

	cfg = GetDefaultConfig()
	cfg.STT.ServerURL = ""
	assert.Error(t, ValidateConfig(cfg))
}
