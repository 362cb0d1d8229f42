package aiprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loglens/loglens/pkg/apperr"
	"github.com/loglens/loglens/pkg/types"
)

// OpenRouterConfig configures the OpenRouter chat-completions backend.
type OpenRouterConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// OpenRouter wraps the OpenRouter chat-completions API behind types.Provider.
type OpenRouter struct {
	config OpenRouterConfig
	client httpDoer
	logger *logrus.Logger
}

// NewOpenRouter builds an OpenRouter provider. client is injected so tests
// can substitute a fake transport.
func NewOpenRouter(config OpenRouterConfig, client httpDoer, logger *logrus.Logger) *OpenRouter {
	if config.BaseURL == "" {
		config.BaseURL = "https://openrouter.ai/api/v1"
	}
	if config.Model == "" {
		config.Model = "openai/gpt-4o-mini"
	}
	return &OpenRouter{config: config, client: client, logger: logger}
}

func (p *OpenRouter) Name() string { return "openrouter" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *OpenRouter) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"/models", nil)
	if err != nil {
		return apperr.New(apperr.Internal, "openrouter", "HealthCheck", "build request").Wrap(err)
	}
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return apperr.New(apperr.Transport, "openrouter", "HealthCheck", "request failed").Wrap(err)
	}
	defer resp.Body.Close()
	return statusToErr("openrouter", resp.StatusCode)
}

func (p *OpenRouter) Analyze(ctx context.Context, req types.AnalysisRequest) (types.AnalysisReport, error) {
	req = sanitizeRequest(req)
	return callWithTimeout(ctx, p.config.Timeout, "openrouter", func(ctx context.Context) (types.AnalysisReport, error) {
		body := chatCompletionRequest{
			Model: p.config.Model,
			Messages: []chatMessage{
				{Role: "user", Content: buildPrompt(req)},
			},
		}
		payload, err := json.Marshal(body)
		if err != nil {
			return types.AnalysisReport{}, apperr.New(apperr.Internal, "openrouter", "Analyze", "marshal request").Wrap(err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return types.AnalysisReport{}, apperr.New(apperr.Internal, "openrouter", "Analyze", "build request").Wrap(err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)

		resp, err := p.client.Do(httpReq)
		if err != nil {
			return types.AnalysisReport{}, apperr.New(apperr.Transport, "openrouter", "Analyze", "request failed").Wrap(err)
		}
		defer resp.Body.Close()

		if err := statusToErr("openrouter", resp.StatusCode); err != nil {
			return types.AnalysisReport{}, err
		}

		var decoded chatCompletionResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return types.AnalysisReport{}, apperr.New(apperr.InvalidResponse, "openrouter", "Analyze", "decode response").Wrap(err)
		}
		if len(decoded.Choices) == 0 {
			return types.AnalysisReport{}, apperr.New(apperr.InvalidResponse, "openrouter", "Analyze", "no choices in response")
		}

		return types.AnalysisReport{Summary: decoded.Choices[0].Message.Content}, nil
	})
}

// statusToErr maps a provider HTTP status to the closed ErrorKind set
// spec.md §4.C allows a provider to fail with.
func statusToErr(component string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.New(apperr.Auth, component, "HTTPCall", fmt.Sprintf("status %d", status))
	case status == http.StatusTooManyRequests:
		return apperr.New(apperr.RateLimited, component, "HTTPCall", fmt.Sprintf("status %d", status))
	case status >= 500:
		return apperr.New(apperr.Transport, component, "HTTPCall", fmt.Sprintf("status %d", status))
	default:
		return apperr.New(apperr.InvalidResponse, component, "HTTPCall", fmt.Sprintf("status %d", status))
	}
}
