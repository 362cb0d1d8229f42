package filter

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/loglens/loglens/pkg/types"
)

// DefaultMaxEntries is the Slimmer's default bound, overridable per call.
const DefaultMaxEntries = 1000

// maxMessageLen is the per-message truncation threshold in characters.
const maxMessageLen = 500

// Slim reduces entries to a representative subset bounded by maxEntries,
// deterministically for a given input and bound. maxEntries <= 0 selects
// DefaultMaxEntries.
//
// Output length is at most maxEntries+1 (the +1 is an optional elision
// marker), per testable property 3 in spec.md §8.
func Slim(entries []types.LogEntry, maxEntries int) []types.LogEntry {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	collapsed := collapseRuns(entries)
	truncated := truncateLong(collapsed)

	if len(truncated) <= maxEntries {
		return truncated
	}
	return dropMiddle(truncated, maxEntries)
}

// collapseRuns merges consecutive byte-identical messages into a single
// entry annotated with RepeatCount. The run key is an xxhash digest of the
// message (grounded on the log-capture teacher's pkg/deduplication cache-key
// hashing), avoiding repeated full-string comparisons on long runs.
func collapseRuns(entries []types.LogEntry) []types.LogEntry {
	out := make([]types.LogEntry, 0, len(entries))
	var runHash uint64
	var runLen int
	var haveRun bool

	flush := func(rep types.LogEntry, n int) {
		rep.RepeatCount = n
		out = append(out, rep)
	}

	var pending types.LogEntry
	for _, e := range entries {
		h := xxhash.Sum64String(e.Message)
		if haveRun && h == runHash && e.Message == pending.Message {
			runLen++
			continue
		}
		if haveRun {
			flush(pending, runLen)
		}
		pending = e.Clone()
		runHash = h
		runLen = 1
		haveRun = true
	}
	if haveRun {
		flush(pending, runLen)
	}
	return out
}

// truncateLong shortens any message over maxMessageLen characters,
// appending an ellipsis and recording the original length.
func truncateLong(entries []types.LogEntry) []types.LogEntry {
	out := make([]types.LogEntry, len(entries))
	for i, e := range entries {
		if len([]rune(e.Message)) > maxMessageLen {
			runes := []rune(e.Message)
			e.OriginalLength = len(runes)
			e.Message = string(runes[:maxMessageLen]) + "…"
		}
		out[i] = e
	}
	return out
}

// dropMiddle preserves the first and last quarters of maxEntries and
// replaces the middle with a single synthetic elision marker, per
// spec.md §4.B ("preserving the first and last quarters").
func dropMiddle(entries []types.LogEntry, maxEntries int) []types.LogEntry {
	quarter := maxEntries / 4
	if quarter < 1 {
		quarter = 1
	}
	keepHead := quarter
	keepTail := quarter
	if keepHead+keepTail > maxEntries {
		// maxEntries == 1: only the head entry fits beside the marker.
		keepTail = maxEntries - keepHead
	}
	if keepHead+keepTail >= len(entries) {
		return entries
	}

	head := entries[:keepHead]
	tail := entries[len(entries)-keepTail:]
	elided := len(entries) - keepHead - keepTail

	out := make([]types.LogEntry, 0, keepHead+keepTail+1)
	out = append(out, head...)
	out = append(out, types.LogEntry{
		Message: fmt.Sprintf("(… %d entries elided …)", elided),
	})
	out = append(out, tail...)
	return out
}
