// Package aiprovider implements the concrete types.Provider variants
// (OpenRouter, OpenAI, Claude, Gemini, Mock). Each wraps a single remote
// backend behind the shared capability interface; wire formats differ but
// the contract in spec.md §4.C is uniform.
package aiprovider

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/loglens/loglens/internal/metrics"
	"github.com/loglens/loglens/internal/resilience"
	"github.com/loglens/loglens/pkg/apperr"
	"github.com/loglens/loglens/pkg/types"
)

// DefaultTimeout is the bounded wall-clock budget for one provider call
// when the caller supplies none (spec.md §4.C).
const DefaultTimeout = 30 * time.Second

// httpDoer is the subset of *http.Client a provider needs; satisfied by
// *http.Client and swappable in tests.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

var (
	breakersMu sync.Mutex
	breakers   = make(map[string]*resilience.Breaker)
)

// breakerFor returns the shared circuit breaker for component, building it
// on first use. One breaker per provider name protects that provider from
// being hammered with requests once it starts failing consistently,
// independent of any other configured provider.
func breakerFor(component string) *resilience.Breaker {
	breakersMu.Lock()
	defer breakersMu.Unlock()
	if b, ok := breakers[component]; ok {
		return b
	}
	b := resilience.NewBreaker(resilience.BreakerConfig{Name: component}, nil)
	breakers[component] = b
	return b
}

// callWithTimeout bounds fn to timeout (or DefaultTimeout if <= 0), runs it
// behind component's circuit breaker, and maps context deadline/
// cancellation and breaker-open rejections to the appropriate apperr.Kind.
func callWithTimeout(ctx context.Context, timeout time.Duration, component string, fn func(ctx context.Context) (types.AnalysisReport, error)) (types.AnalysisReport, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	callStart := time.Now()
	var report types.AnalysisReport
	breakerErr := breakerFor(component).Execute(func() error {
		var fnErr error
		report, fnErr = fn(ctx)
		return fnErr
	})
	if breakerErr != nil {
		metrics.RecordAIProviderCall(component, "error", time.Since(callStart))
		if ctx.Err() == context.DeadlineExceeded {
			return types.AnalysisReport{}, apperr.New(apperr.Transport, component, "Analyze", "provider call timed out").Wrap(breakerErr)
		}
		if ctx.Err() == context.Canceled {
			return types.AnalysisReport{}, apperr.New(apperr.Cancelled, component, "Analyze", "provider call cancelled").Wrap(breakerErr)
		}
		if _, ok := apperr.As(breakerErr); !ok {
			// no *apperr.Error in the chain means fn never ran: the
			// breaker's own short-circuit rejection (open or half-open
			// probes exhausted).
			return types.AnalysisReport{}, apperr.New(apperr.Transport, component, "Analyze", "circuit breaker open").Wrap(breakerErr)
		}
		return types.AnalysisReport{}, breakerErr
	}
	metrics.RecordAIProviderCall(component, "success", time.Since(callStart))
	return report, nil
}

// sanitizeRequest strips secret-shaped substrings from the free-text
// fields of req before it is serialized into an outgoing prompt.
func sanitizeRequest(req types.AnalysisRequest) types.AnalysisRequest {
	req.UserContext = StripSecrets(req.UserContext)
	req.Focus = StripSecrets(req.Focus)
	for i := range req.Entries {
		req.Entries[i].Message = StripSecrets(req.Entries[i].Message)
	}
	return req
}
