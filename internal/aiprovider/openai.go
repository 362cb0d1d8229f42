package aiprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loglens/loglens/pkg/apperr"
	"github.com/loglens/loglens/pkg/types"
)

// OpenAIConfig configures the OpenAI chat-completions backend.
type OpenAIConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// OpenAI wraps the OpenAI chat-completions API behind types.Provider.
type OpenAI struct {
	config OpenAIConfig
	client httpDoer
	logger *logrus.Logger
}

func NewOpenAI(config OpenAIConfig, client httpDoer, logger *logrus.Logger) *OpenAI {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	return &OpenAI{config: config, client: client, logger: logger}
}

func (p *OpenAI) Name() string { return "openai" }

func (p *OpenAI) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"/models", nil)
	if err != nil {
		return apperr.New(apperr.Internal, "openai", "HealthCheck", "build request").Wrap(err)
	}
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return apperr.New(apperr.Transport, "openai", "HealthCheck", "request failed").Wrap(err)
	}
	defer resp.Body.Close()
	return statusToErr("openai", resp.StatusCode)
}

func (p *OpenAI) Analyze(ctx context.Context, req types.AnalysisRequest) (types.AnalysisReport, error) {
	req = sanitizeRequest(req)
	return callWithTimeout(ctx, p.config.Timeout, "openai", func(ctx context.Context) (types.AnalysisReport, error) {
		body := chatCompletionRequest{
			Model:    p.config.Model,
			Messages: []chatMessage{{Role: "user", Content: buildPrompt(req)}},
		}
		payload, err := json.Marshal(body)
		if err != nil {
			return types.AnalysisReport{}, apperr.New(apperr.Internal, "openai", "Analyze", "marshal request").Wrap(err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return types.AnalysisReport{}, apperr.New(apperr.Internal, "openai", "Analyze", "build request").Wrap(err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)

		resp, err := p.client.Do(httpReq)
		if err != nil {
			return types.AnalysisReport{}, apperr.New(apperr.Transport, "openai", "Analyze", "request failed").Wrap(err)
		}
		defer resp.Body.Close()

		if err := statusToErr("openai", resp.StatusCode); err != nil {
			return types.AnalysisReport{}, err
		}

		var decoded chatCompletionResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return types.AnalysisReport{}, apperr.New(apperr.InvalidResponse, "openai", "Analyze", "decode response").Wrap(err)
		}
		if len(decoded.Choices) == 0 {
			return types.AnalysisReport{}, apperr.New(apperr.InvalidResponse, "openai", "Analyze", "no choices in response")
		}

		return types.AnalysisReport{Summary: decoded.Choices[0].Message.Content}, nil
	})
}
