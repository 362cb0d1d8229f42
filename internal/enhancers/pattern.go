package enhancers

import (
	"sort"

	"github.com/loglens/loglens/pkg/types"
)

// DefaultMinFrequency is the default pattern minimum frequency, left
// injectable per spec.md §9's open question.
const DefaultMinFrequency = 2

// Patterns groups filtered entries by normalized message signature and
// emits signatures with frequency >= minFrequency, ordered by frequency
// desc then first-seen index asc.
func Patterns(entries []types.LogEntry, minFrequency int) []types.Pattern {
	if minFrequency <= 0 {
		minFrequency = DefaultMinFrequency
	}

	type agg struct {
		sig       string
		freq      int
		firstSeen int
		lastSeen  int
	}
	order := make([]string, 0)
	bySig := make(map[string]*agg)

	for i, e := range entries {
		sig := Signature(e.Message)
		a, ok := bySig[sig]
		if !ok {
			a = &agg{sig: sig, firstSeen: i, lastSeen: i}
			bySig[sig] = a
			order = append(order, sig)
		}
		a.freq++
		a.lastSeen = i
	}

	out := make([]types.Pattern, 0, len(order))
	for _, sig := range order {
		a := bySig[sig]
		if a.freq < minFrequency {
			continue
		}
		out = append(out, types.Pattern{
			Signature: a.sig,
			Frequency: a.freq,
			FirstSeen: a.firstSeen,
			LastSeen:  a.lastSeen,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].FirstSeen < out[j].FirstSeen
	})

	return out
}
