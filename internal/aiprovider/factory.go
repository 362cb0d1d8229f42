package aiprovider

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/loglens/loglens/pkg/apperr"
	"github.com/loglens/loglens/pkg/types"
)

// Config is the union of per-provider settings read from the ambient
// config file's `ai_providers` section; only the block matching the
// selected provider name is used.
type Config struct {
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Claude     ClaudeConfig     `yaml:"claude"`
	Gemini     GeminiConfig     `yaml:"gemini"`
}

// New builds the named provider. "mock" always succeeds and needs no
// configuration; any other name requires a matching block in cfg.
func New(name string, cfg Config, client *http.Client, logger *logrus.Logger) (types.Provider, error) {
	if client == nil {
		client = http.DefaultClient
	}
	switch name {
	case "", "mock":
		return &Mock{}, nil
	case "openrouter":
		return NewOpenRouter(cfg.OpenRouter, client, logger), nil
	case "openai":
		return NewOpenAI(cfg.OpenAI, client, logger), nil
	case "claude":
		return NewClaude(cfg.Claude, client, logger), nil
	case "gemini":
		return NewGemini(cfg.Gemini, client, logger), nil
	default:
		return nil, apperr.New(apperr.Unsupported, "aiprovider", "New", "unknown provider: "+name)
	}
}
