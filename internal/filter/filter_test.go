package filter

import (
	"strconv"
	"strings"
	"testing"

	"github.com/loglens/loglens/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_ThresholdMonotonic(t *testing.T) {
	entries := []types.LogEntry{
		{Severity: types.SeverityDebug, Message: "d"},
		{Severity: types.SeverityInfo, Message: "i"},
		{Severity: types.SeverityWarn, Message: "w"},
		{Severity: types.SeverityError, Message: "e"},
		{Severity: types.SeverityNone, Message: "unknown"},
	}

	info := Apply(entries, types.SeverityInfo)
	errOnly := Apply(entries, types.SeverityError)

	assert.LessOrEqual(t, len(errOnly), len(info))
	// unknown severity is always retained.
	found := false
	for _, e := range errOnly {
		if e.Message == "unknown" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestApply_IsSubsequence(t *testing.T) {
	entries := []types.LogEntry{
		{Severity: types.SeverityError, Message: "1"},
		{Severity: types.SeverityInfo, Message: "2"},
		{Severity: types.SeverityError, Message: "3"},
	}
	out := Apply(entries, types.SeverityError)
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].Message)
	assert.Equal(t, "3", out[1].Message)
}

func TestSlim_CollapsesRepeats(t *testing.T) {
	entries := make([]types.LogEntry, 5)
	for i := range entries {
		entries[i] = types.LogEntry{Message: "same"}
	}
	out := Slim(entries, 100)
	require.Len(t, out, 1)
	assert.Equal(t, 5, out[0].RepeatCount)
}

func TestSlim_TruncatesLongMessages(t *testing.T) {
	long := strings.Repeat("a", 600)
	out := Slim([]types.LogEntry{{Message: long}}, 100)
	require.Len(t, out, 1)
	assert.True(t, len([]rune(out[0].Message)) < 600)
	assert.Equal(t, 600, out[0].OriginalLength)
}

func TestSlim_BoundWithElision(t *testing.T) {
	entries := make([]types.LogEntry, 10000)
	for i := range entries {
		entries[i] = types.LogEntry{Message: "unique-" + strconv.Itoa(i)}
	}
	out := Slim(entries, 1000)
	assert.LessOrEqual(t, len(out), 1001)
}
