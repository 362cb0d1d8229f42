package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_FillsEveryEmptyField(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "loglens", cfg.App.Name)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "json", cfg.App.LogFormat)
	assert.NotEmpty(t, cfg.Store.DataDir)
	assert.NotEmpty(t, cfg.Store.RegistryPath)
	assert.Equal(t, "mock", cfg.AI.DefaultProvider)
	assert.True(t, cfg.MCP.Stdio)
	assert.Equal(t, 10000, cfg.Streaming.RingBufferSize)
}

func TestApplyDefaults_NeverOverwritesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.App.Name = "custom"
	cfg.Streaming.RingBufferSize = 42

	applyDefaults(cfg)

	assert.Equal(t, "custom", cfg.App.Name)
	assert.Equal(t, 42, cfg.Streaming.RingBufferSize)
}

func TestLoadConfig_EnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("LOGLENS_LOG_LEVEL", "debug")
	t.Setenv("OPENAI_API_KEY", "test-key")

	cfg, err := LoadConfig("")
	assert.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "test-key", cfg.AI.OpenAI.APIKey)
}
