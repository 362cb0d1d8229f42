package enhancers

import (
	"fmt"
	"sync"

	"github.com/loglens/loglens/pkg/types"
)

// Result is the merged output of all four enhancers plus any warnings from
// enhancers that failed. Failures are non-fatal: per spec.md §4.E's
// failure policy, a failing enhancer degrades to a report warning rather
// than aborting the run.
type Result struct {
	Patterns     []types.Pattern
	Anomalies    []types.Anomaly
	Correlations []types.Correlation
	Performance  types.PerformanceMetrics
	Warnings     []string
}

// Run executes the four enhancers concurrently over filtered (not slimmed)
// entries, grounded on the log-capture teacher's pkg/workerpool fan-out
// shape adapted to a fixed four-task set with per-task panic recovery
// instead of a generic task queue.
func Run(entries []types.LogEntry, minFrequency int, correlationThreshold float64) Result {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		result   Result
	)

	run := func(name string, fn func()) {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				mu.Lock()
				result.Warnings = append(result.Warnings, fmt.Sprintf("enhancer %s panicked: %v", name, r))
				mu.Unlock()
			}
		}()
		fn()
	}

	wg.Add(4)
	go run("pattern", func() {
		p := Patterns(entries, minFrequency)
		mu.Lock()
		result.Patterns = p
		mu.Unlock()
	})
	go run("anomaly", func() {
		a := Anomalies(entries)
		mu.Lock()
		result.Anomalies = a
		mu.Unlock()
	})
	go run("correlation", func() {
		c := Correlations(entries, correlationThreshold)
		mu.Lock()
		result.Correlations = c
		mu.Unlock()
	})
	go run("performance", func() {
		perf := Performance(entries)
		mu.Lock()
		result.Performance = perf
		mu.Unlock()
	})

	wg.Wait()
	return result
}
