package enhancers

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/loglens/loglens/pkg/types"
)

var latencyRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s?(ms|s|µs|us)`)

// latenciesMS extracts every latency token in message, normalized to
// milliseconds.
func latenciesMS(message string) []float64 {
	matches := latencyRe.FindAllStringSubmatch(message, -1)
	if matches == nil {
		return nil
	}
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		switch m[2] {
		case "s":
			v *= 1000
		case "µs", "us":
			v /= 1000
		}
		out = append(out, v)
	}
	return out
}

func stats(samples []float64) types.TimingStats {
	if len(samples) == 0 {
		return types.TimingStats{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return types.TimingStats{
		MinMS:  sorted[0],
		MeanMS: sum / float64(len(sorted)),
		P50MS:  percentile(sorted, 0.50),
		P95MS:  percentile(sorted, 0.95),
		MaxMS:  sorted[len(sorted)-1],
		Count:  len(sorted),
	}
}

// percentile assumes samples is already sorted ascending.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := int(p * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Performance extracts latency tokens from filtered entries and computes
// global and per-signature timing statistics, flagging bottlenecks whose
// p95 exceeds 10x the global p50.
func Performance(entries []types.LogEntry) types.PerformanceMetrics {
	var globalSamples []float64
	bySig := make(map[string][]float64)
	var sigOrder []string

	for _, e := range entries {
		lat := latenciesMS(e.Message)
		if len(lat) == 0 {
			continue
		}
		globalSamples = append(globalSamples, lat...)
		sig := Signature(e.Message)
		if _, ok := bySig[sig]; !ok {
			sigOrder = append(sigOrder, sig)
		}
		bySig[sig] = append(bySig[sig], lat...)
	}

	global := stats(globalSamples)

	var bottlenecks []types.Bottleneck
	for _, sig := range sigOrder {
		st := stats(bySig[sig])
		if global.P50MS > 0 && st.P95MS > 10*global.P50MS {
			bottlenecks = append(bottlenecks, types.Bottleneck{Signature: sig, Stats: st})
		}
	}
	sort.SliceStable(bottlenecks, func(i, j int) bool {
		return bottlenecks[i].Stats.P95MS > bottlenecks[j].Stats.P95MS
	})

	score := 100.0
	if global.P95MS > 0 {
		score = 100 - min(100, global.P95MS/100)
	}
	if score < 0 {
		score = 0
	}

	return types.PerformanceMetrics{
		Score:       score,
		Bottlenecks: bottlenecks,
		Global:      global,
	}
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
