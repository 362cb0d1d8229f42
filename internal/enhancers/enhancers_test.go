package enhancers

import (
	"testing"

	"github.com/loglens/loglens/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entriesWithMessages(msgs ...string) []types.LogEntry {
	out := make([]types.LogEntry, len(msgs))
	for i, m := range msgs {
		out[i] = types.LogEntry{Message: m, Severity: types.SeverityError}
	}
	return out
}

func TestPatterns_DBTimeoutSignature(t *testing.T) {
	var msgs []string
	for i := 0; i < 10; i++ {
		msgs = append(msgs, "DB timeout after 42 ms")
	}
	for i := 0; i < 10; i++ {
		msgs = append(msgs, "DB timeout after 51 ms")
	}
	patterns := Patterns(entriesWithMessages(msgs...), DefaultMinFrequency)

	require.NotEmpty(t, patterns)
	assert.Equal(t, "DB timeout after %d ms", patterns[0].Signature)
	assert.Equal(t, 20, patterns[0].Frequency)
}

func TestSignature_Canonicalization(t *testing.T) {
	sig := Signature(`request 123e4567-e89b-12d3-a456-426614174000 failed with code 42 and tag "bad request" at 0xdeadbeef`)
	assert.Equal(t, `request %id failed with code %d and tag %s at %x`, sig)
}

func TestPerformance_ScoreWithNoLatency(t *testing.T) {
	perf := Performance(entriesWithMessages("no latency here"))
	assert.Equal(t, 100.0, perf.Score)
	assert.Empty(t, perf.Bottlenecks)
}

func TestPerformance_Bottleneck(t *testing.T) {
	var msgs []string
	for i := 0; i < 20; i++ {
		msgs = append(msgs, "fast op took 10 ms")
	}
	msgs = append(msgs, "slow op took 5000 ms")
	perf := Performance(entriesWithMessages(msgs...))
	assert.NotEmpty(t, perf.Bottlenecks)
}

func TestAnomalies_RequiresMinFrequency(t *testing.T) {
	msgs := []string{"rare event"}
	anomalies := Anomalies(entriesWithMessages(msgs...))
	assert.Empty(t, anomalies)
}

func TestCorrelations_CappedAndSorted(t *testing.T) {
	var msgs []string
	for i := 0; i < 100; i++ {
		msgs = append(msgs, "alpha event", "beta event")
	}
	out := Correlations(entriesWithMessages(msgs...), 0.1)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Strength, out[i].Strength)
	}
	assert.LessOrEqual(t, len(out), 50)
}

func TestRun_NoPanicLeavesNoWarnings(t *testing.T) {
	result := Run(entriesWithMessages("a", "b", "c"), DefaultMinFrequency, DefaultCorrelationThreshold)
	assert.Empty(t, result.Warnings)
}
