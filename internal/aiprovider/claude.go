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

// ClaudeConfig configures the Anthropic Messages API backend.
type ClaudeConfig struct {
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	Model      string        `yaml:"model"`
	APIVersion string        `yaml:"api_version"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Claude wraps the Anthropic Messages API behind types.Provider.
type Claude struct {
	config ClaudeConfig
	client httpDoer
	logger *logrus.Logger
}

func NewClaude(config ClaudeConfig, client httpDoer, logger *logrus.Logger) *Claude {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.anthropic.com/v1"
	}
	if config.Model == "" {
		config.Model = "claude-3-5-sonnet-latest"
	}
	if config.APIVersion == "" {
		config.APIVersion = "2023-06-01"
	}
	return &Claude{config: config, client: client, logger: logger}
}

func (p *Claude) Name() string { return "claude" }

type claudeMessageRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type claudeMessageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (p *Claude) headers(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", p.config.APIVersion)
}

func (p *Claude) HealthCheck(ctx context.Context) error {
	body := claudeMessageRequest{
		Model:     p.config.Model,
		MaxTokens: 1,
		Messages:  []chatMessage{{Role: "user", Content: "ping"}},
	}
	payload, _ := json.Marshal(body)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return apperr.New(apperr.Internal, "claude", "HealthCheck", "build request").Wrap(err)
	}
	p.headers(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return apperr.New(apperr.Transport, "claude", "HealthCheck", "request failed").Wrap(err)
	}
	defer resp.Body.Close()
	return statusToErr("claude", resp.StatusCode)
}

func (p *Claude) Analyze(ctx context.Context, req types.AnalysisRequest) (types.AnalysisReport, error) {
	req = sanitizeRequest(req)
	return callWithTimeout(ctx, p.config.Timeout, "claude", func(ctx context.Context) (types.AnalysisReport, error) {
		body := claudeMessageRequest{
			Model:     p.config.Model,
			MaxTokens: 4096,
			Messages:  []chatMessage{{Role: "user", Content: buildPrompt(req)}},
		}
		payload, err := json.Marshal(body)
		if err != nil {
			return types.AnalysisReport{}, apperr.New(apperr.Internal, "claude", "Analyze", "marshal request").Wrap(err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/messages", bytes.NewReader(payload))
		if err != nil {
			return types.AnalysisReport{}, apperr.New(apperr.Internal, "claude", "Analyze", "build request").Wrap(err)
		}
		p.headers(httpReq)

		resp, err := p.client.Do(httpReq)
		if err != nil {
			return types.AnalysisReport{}, apperr.New(apperr.Transport, "claude", "Analyze", "request failed").Wrap(err)
		}
		defer resp.Body.Close()

		if err := statusToErr("claude", resp.StatusCode); err != nil {
			return types.AnalysisReport{}, err
		}

		var decoded claudeMessageResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return types.AnalysisReport{}, apperr.New(apperr.InvalidResponse, "claude", "Analyze", "decode response").Wrap(err)
		}
		if len(decoded.Content) == 0 {
			return types.AnalysisReport{}, apperr.New(apperr.InvalidResponse, "claude", "Analyze", "no content blocks in response")
		}

		return types.AnalysisReport{Summary: decoded.Content[0].Text}, nil
	})
}
