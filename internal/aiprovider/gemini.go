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

// GeminiConfig configures the Google Generative Language API backend.
type GeminiConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Gemini wraps the Google Generative Language API behind types.Provider.
type Gemini struct {
	config GeminiConfig
	client httpDoer
	logger *logrus.Logger
}

func NewGemini(config GeminiConfig, client httpDoer, logger *logrus.Logger) *Gemini {
	if config.BaseURL == "" {
		config.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}
	return &Gemini{config: config, client: client, logger: logger}
}

func (p *Gemini) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (p *Gemini) endpoint(method string) string {
	return fmt.Sprintf("%s/models/%s:%s?key=%s", p.config.BaseURL, p.config.Model, method, p.config.APIKey)
}

func (p *Gemini) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/models/%s?key=%s", p.config.BaseURL, p.config.Model, p.config.APIKey), nil)
	if err != nil {
		return apperr.New(apperr.Internal, "gemini", "HealthCheck", "build request").Wrap(err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return apperr.New(apperr.Transport, "gemini", "HealthCheck", "request failed").Wrap(err)
	}
	defer resp.Body.Close()
	return statusToErr("gemini", resp.StatusCode)
}

func (p *Gemini) Analyze(ctx context.Context, req types.AnalysisRequest) (types.AnalysisReport, error) {
	req = sanitizeRequest(req)
	return callWithTimeout(ctx, p.config.Timeout, "gemini", func(ctx context.Context) (types.AnalysisReport, error) {
		body := geminiGenerateRequest{
			Contents: []geminiContent{{Parts: []geminiPart{{Text: buildPrompt(req)}}}},
		}
		payload, err := json.Marshal(body)
		if err != nil {
			return types.AnalysisReport{}, apperr.New(apperr.Internal, "gemini", "Analyze", "marshal request").Wrap(err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint("generateContent"), bytes.NewReader(payload))
		if err != nil {
			return types.AnalysisReport{}, apperr.New(apperr.Internal, "gemini", "Analyze", "build request").Wrap(err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(httpReq)
		if err != nil {
			return types.AnalysisReport{}, apperr.New(apperr.Transport, "gemini", "Analyze", "request failed").Wrap(err)
		}
		defer resp.Body.Close()

		if err := statusToErr("gemini", resp.StatusCode); err != nil {
			return types.AnalysisReport{}, err
		}

		var decoded geminiGenerateResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return types.AnalysisReport{}, apperr.New(apperr.InvalidResponse, "gemini", "Analyze", "decode response").Wrap(err)
		}
		if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
			return types.AnalysisReport{}, apperr.New(apperr.InvalidResponse, "gemini", "Analyze", "no candidates in response")
		}

		return types.AnalysisReport{Summary: decoded.Candidates[0].Content.Parts[0].Text}, nil
	})
}
