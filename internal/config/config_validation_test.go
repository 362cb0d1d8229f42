package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loglens/loglens/pkg/apperr"
)

func TestValidateConfig_DefaultsPassValidation(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestValidateConfig_RejectsInvalidLogLevel(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.App.LogLevel = "verbose"

	err := ValidateConfig(cfg)
	assert.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.InvalidInput))
}

func TestValidateConfig_RejectsOutOfRangeSampleRatio(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Tracing.SampleRatio = 1.5

	err := ValidateConfig(cfg)
	assert.Error(t, err)
}

func TestValidateConfig_RejectsNonPositiveRingBufferSize(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Streaming.RingBufferSize = 0

	err := ValidateConfig(cfg)
	assert.Error(t, err)
}

func TestValidateConfig_AggregatesMultipleProblems(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.App.LogLevel = "verbose"
	cfg.App.LogFormat = "xml"

	err := ValidateConfig(cfg)
	assert.Error(t, err)
	appErr, ok := apperr.As(err)
	assert.True(t, ok)
	assert.Contains(t, appErr.Message, "log_level")
	assert.Contains(t, appErr.Message, "log_format")
}
