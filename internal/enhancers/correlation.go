package enhancers

import (
	"sort"

	"github.com/loglens/loglens/pkg/types"
)

// DefaultCorrelationThreshold is the default minimum Jaccard strength to
// emit a pair, left injectable per spec.md §9's open question.
const DefaultCorrelationThreshold = 0.3

const correlationWindowSize = 10
const correlationCap = 50

// Correlations builds a co-occurrence matrix over sliding windows of 10
// entries and emits signature pairs whose window-membership Jaccard
// similarity is at or above threshold, capped at 50 entries by strength
// desc.
func Correlations(entries []types.LogEntry, threshold float64) []types.Correlation {
	if threshold <= 0 {
		threshold = DefaultCorrelationThreshold
	}

	windowSize := correlationWindowSize
	if windowSize > len(entries) {
		windowSize = len(entries)
	}
	if windowSize == 0 {
		return nil
	}

	windowCount := make(map[string]int)
	coOccur := make(map[[2]string]int)

	numWindows := len(entries) - windowSize + 1
	if numWindows < 1 {
		numWindows = 1
	}

	for w := 0; w < numWindows; w++ {
		present := make(map[string]bool)
		for i := w; i < w+windowSize && i < len(entries); i++ {
			present[Signature(entries[i].Message)] = true
		}
		sigs := make([]string, 0, len(present))
		for sig := range present {
			sigs = append(sigs, sig)
			windowCount[sig]++
		}
		sort.Strings(sigs)
		for i := 0; i < len(sigs); i++ {
			for j := i + 1; j < len(sigs); j++ {
				coOccur[[2]string{sigs[i], sigs[j]}]++
			}
		}
	}

	out := make([]types.Correlation, 0)
	for pair, both := range coOccur {
		union := windowCount[pair[0]] + windowCount[pair[1]] - both
		if union <= 0 {
			continue
		}
		strength := float64(both) / float64(union)
		if strength >= threshold {
			out = append(out, types.Correlation{
				SignatureA: pair[0],
				SignatureB: pair[1],
				Strength:   strength,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Strength != out[j].Strength {
			return out[i].Strength > out[j].Strength
		}
		if out[i].SignatureA != out[j].SignatureA {
			return out[i].SignatureA < out[j].SignatureA
		}
		return out[i].SignatureB < out[j].SignatureB
	})

	if len(out) > correlationCap {
		out = out[:correlationCap]
	}
	return out
}
