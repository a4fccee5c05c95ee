// Package backoff provides a scheduler-agnostic exponential backoff policy and
// a concurrency-safe tracker that applies it to consecutive upstream failures.
package backoff

import (
	"sync"
	"time"
)

const (
	DefaultBase = time.Second
	DefaultCap  = 30 * time.Second
)

// Policy computes the wait before the next attempt after n consecutive failures.
// Grace failures are tolerated before any delay applies.
type Policy struct {
	Base  time.Duration
	Cap   time.Duration
	Grace int
}

// DefaultPolicy returns base 1s, cap 30s, no grace.
func DefaultPolicy() Policy {
	return Policy{Base: DefaultBase, Cap: DefaultCap}
}

// NextDelay returns min(Cap, Base*2^(n-Grace-1)), or zero while n <= Grace.
func (p Policy) NextDelay(consecutiveFailures int) time.Duration {
	base, ceiling := p.Base, p.Cap
	if base <= 0 {
		base = DefaultBase
	}
	if ceiling <= 0 {
		ceiling = DefaultCap
	}
	exp := consecutiveFailures - p.Grace - 1
	if exp < 0 {
		return 0
	}
	delay := base
	for i := 0; i < exp; i++ {
		delay *= 2
		if delay >= ceiling {
			return ceiling
		}
	}
	if delay > ceiling {
		return ceiling
	}
	return delay
}

// Tracker records consecutive failures for one upstream and tells callers
// whether an attempt is allowed yet. The zero value is not usable; use NewTracker.
type Tracker struct {
	mu       sync.Mutex
	name     string
	policy   Policy
	failures int
	until    time.Time
}

// NewTracker creates a tracker for the named upstream.
func NewTracker(name string, policy Policy) *Tracker {
	return &Tracker{name: name, policy: policy}
}

// Name returns the upstream name, used as a metrics label.
func (t *Tracker) Name() string {
	return t.name
}

// Ready reports whether an attempt may proceed at now. When it may not, the
// remaining wait is returned.
func (t *Tracker) Ready(now time.Time) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.until.IsZero() || !now.Before(t.until) {
		return true, 0
	}
	return false, t.until.Sub(now)
}

// RecordFailure counts a failure at now and returns the delay imposed before
// the next attempt. engaged is true when this failure started a new delay.
func (t *Tracker) RecordFailure(now time.Time) (delay time.Duration, engaged bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures++
	delay = t.policy.NextDelay(t.failures)
	if delay > 0 {
		t.until = now.Add(delay)
	}
	return delay, delay > 0
}

// RecordSuccess clears the failure streak.
func (t *Tracker) RecordSuccess() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures = 0
	t.until = time.Time{}
}

// Failures returns the current consecutive failure count.
func (t *Tracker) Failures() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failures
}
