package enhancers

import (
	"math"

	"github.com/loglens/loglens/pkg/types"
)

const anomalyEpsilon = 1e-9

// Anomalies flags signatures whose last inter-arrival gap is an outlier
// relative to their own history.
//
// LogEntry.Timestamp is an opaque string (spec.md §3) with no canonical
// parsed form, so "arrival time" here is each occurrence's position index
// within the filtered sequence — a monotonic proxy consistent with the
// ordering guarantee the pipeline already provides.
func Anomalies(entries []types.LogEntry) []types.Anomaly {
	positions := make(map[string][]int)
	var order []string
	for i, e := range entries {
		sig := Signature(e.Message)
		if _, ok := positions[sig]; !ok {
			order = append(order, sig)
		}
		positions[sig] = append(positions[sig], i)
	}

	var out []types.Anomaly
	for _, sig := range order {
		pos := positions[sig]
		f := len(pos)
		if f < 5 {
			continue
		}
		intervals := make([]float64, 0, f-1)
		for i := 1; i < len(pos); i++ {
			intervals = append(intervals, float64(pos[i]-pos[i-1]))
		}
		if len(intervals) == 0 {
			continue
		}
		mean := meanOf(intervals)
		sigma := stddevOf(intervals, mean)
		last := intervals[len(intervals)-1]

		if last > mean+3*sigma {
			confidence := (last - mean) / (sigma*6 + anomalyEpsilon)
			if confidence > 1 {
				confidence = 1
			}
			out = append(out, types.Anomaly{
				Signature:  sig,
				Confidence: confidence,
				Kind:       "interval-gap",
			})
		}
	}
	return out
}

func meanOf(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func stddevOf(v []float64, mean float64) float64 {
	var sumSq float64
	for _, x := range v {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(v)))
}
