// Package resilience provides a circuit breaker guarding repeated calls to
// an unreliable external dependency. Grounded on the teacher's
// pkg/circuit/breaker.go (the fuller of its two overlapping circuit
// breaker implementations — pkg/circuit_breaker/circuit_breaker.go
// duplicated the same pattern with a thinner state machine and was
// dropped rather than kept alongside it), adapted to drop its dependency
// on the teacher's own pkg/types.CircuitBreakerState/Stats in favor of a
// local state enum, and wired into internal/aiprovider so a failing AI
// provider stops being hammered with requests instead of retried forever.
package resilience

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State is one of the three circuit breaker states.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// BreakerConfig tunes one Breaker's trip/recovery thresholds.
type BreakerConfig struct {
	Name             string
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
	HalfOpenMaxCalls int
}

// Stats is a snapshot of one Breaker's counters.
type Stats struct {
	State         State
	Failures      int64
	Successes     int64
	Requests      int64
	LastFailure   time.Time
	LastSuccess   time.Time
	NextRetryTime time.Time
}

// Breaker wraps calls to an unreliable dependency, tripping open once its
// failure count reaches FailureThreshold (each success while closed
// lowers the count by one) and probing recovery via a bounded
// number of half-open calls after Timeout elapses.
type Breaker struct {
	config BreakerConfig
	logger *logrus.Logger

	mu            sync.Mutex
	state         State
	failures      int64
	successes     int64
	requests      int64
	lastFailure   time.Time
	lastSuccess   time.Time
	nextRetryTime time.Time

	halfOpenCalls     int
	halfOpenSuccesses int
	halfOpenStartTime time.Time
}

// NewBreaker builds a Breaker, filling unset config fields with the
// teacher's own defaults (failure count of 5 to trip, 3 successes to
// close, 60s open timeout, 10 half-open probes).
func NewBreaker(config BreakerConfig, logger *logrus.Logger) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 10
	}
	return &Breaker{config: config, logger: logger, state: StateClosed}
}

// Execute runs fn under the breaker's protection, short-circuiting with an
// error instead of calling fn when the breaker is open.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	b.requests++

	if b.state == StateOpen {
		if time.Now().Before(b.nextRetryTime) {
			b.mu.Unlock()
			return fmt.Errorf("circuit breaker %s is open", b.config.Name)
		}
		b.setState(StateHalfOpen)
		b.halfOpenCalls = 0
		b.halfOpenSuccesses = 0
		b.halfOpenStartTime = time.Now()
	}

	if b.state == StateHalfOpen {
		if time.Since(b.halfOpenStartTime) > b.config.Timeout*2 {
			b.logf("half-open probe window expired, reopening")
			b.trip()
			b.mu.Unlock()
			return fmt.Errorf("circuit breaker %s half-open timeout", b.config.Name)
		}
		if b.halfOpenCalls >= b.config.HalfOpenMaxCalls {
			b.mu.Unlock()
			return fmt.Errorf("circuit breaker %s is half-open (max probes reached)", b.config.Name)
		}
		b.halfOpenCalls++
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.onFailure()
		if b.shouldTrip() {
			b.trip()
		}
		return err
	}
	b.onSuccess()
	return nil
}

func (b *Breaker) shouldTrip() bool {
	return b.state == StateClosed && b.failures >= int64(b.config.FailureThreshold)
}

func (b *Breaker) trip() {
	if b.state == StateOpen {
		return
	}
	b.setState(StateOpen)
	b.nextRetryTime = time.Now().Add(b.config.Timeout)
}

func (b *Breaker) onFailure() {
	b.failures++
	b.lastFailure = time.Now()
	if b.state == StateHalfOpen {
		b.trip()
	}
}

func (b *Breaker) onSuccess() {
	b.successes++
	b.lastSuccess = time.Now()
	switch b.state {
	case StateHalfOpen:
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.config.SuccessThreshold {
			b.setState(StateClosed)
			b.resetLocked()
		}
	case StateClosed:
		if b.failures > 0 {
			b.failures--
		}
	}
}

func (b *Breaker) resetLocked() {
	b.failures = 0
	b.halfOpenCalls = 0
	b.halfOpenSuccesses = 0
	b.nextRetryTime = time.Time{}
}

func (b *Breaker) setState(next State) {
	if b.state == next {
		return
	}
	prev := b.state
	b.state = next
	b.logf("state change %s -> %s (failures=%d successes=%d)", prev, next, b.failures, b.successes)
}

func (b *Breaker) logf(format string, args ...any) {
	if b.logger != nil {
		b.logger.WithField("breaker", b.config.Name).Infof(format, args...)
	}
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns a snapshot of the breaker's counters.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		State: b.state, Failures: b.failures, Successes: b.successes, Requests: b.requests,
		LastFailure: b.lastFailure, LastSuccess: b.lastSuccess, NextRetryTime: b.nextRetryTime,
	}
}

// Reset forces the breaker back to closed, clearing its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setState(StateClosed)
	b.resetLocked()
}
