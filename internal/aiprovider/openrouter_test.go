package aiprovider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/loglens/loglens/pkg/apperr"
	"github.com/loglens/loglens/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDoer struct {
	status int
	body   string
	err    error
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(bytes.NewBufferString(f.body)),
	}, nil
}

func TestOpenRouter_AnalyzeHappyPath(t *testing.T) {
	doer := &fakeDoer{status: http.StatusOK, body: `{"choices":[{"message":{"role":"assistant","content":"looks fine"}}]}`}
	p := NewOpenRouter(OpenRouterConfig{APIKey: "test"}, doer, nil)

	report, err := p.Analyze(context.Background(), types.AnalysisRequest{Entries: []types.LogEntry{{Message: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "looks fine", report.Summary)
}

func TestOpenRouter_AnalyzeAuthFailure(t *testing.T) {
	doer := &fakeDoer{status: http.StatusUnauthorized, body: `{}`}
	p := NewOpenRouter(OpenRouterConfig{APIKey: "bad"}, doer, nil)

	_, err := p.Analyze(context.Background(), types.AnalysisRequest{})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Auth))
}

func TestOpenRouter_AnalyzeRateLimited(t *testing.T) {
	doer := &fakeDoer{status: http.StatusTooManyRequests, body: `{}`}
	p := NewOpenRouter(OpenRouterConfig{}, doer, nil)

	_, err := p.Analyze(context.Background(), types.AnalysisRequest{})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.RateLimited))
}

func TestOpenRouter_AnalyzeMalformedResponse(t *testing.T) {
	doer := &fakeDoer{status: http.StatusOK, body: `{"choices":[]}`}
	p := NewOpenRouter(OpenRouterConfig{}, doer, nil)

	_, err := p.Analyze(context.Background(), types.AnalysisRequest{})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.InvalidResponse))
}
