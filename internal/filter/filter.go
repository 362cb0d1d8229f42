// Package filter implements the level-threshold Filter and the volume-
// reducing Slimmer described in spec.md §4.B.
package filter

import "github.com/loglens/loglens/pkg/types"

// Apply returns the subsequence of entries whose severity is at or above
// threshold. Entries of unknown severity are retained (they cannot be
// proven below threshold). Raising threshold never increases the size of
// the result (testable property 2 in spec.md §8).
func Apply(entries []types.LogEntry, threshold types.Severity) []types.LogEntry {
	out := make([]types.LogEntry, 0, len(entries))
	for _, e := range entries {
		if e.Severity.AtLeast(threshold) {
			out = append(out, e)
		}
	}
	return out
}
