package resilience

import (
	"sync"
	"time"
)

// Breaker skips a flaky upstream after repeated consecutive failures.
// Failures must land within the window to accumulate; once the threshold
// trips, the breaker stays open for the cooldown and the adapter reports
// itself unavailable, causing immediate fallback to the next provider.
type Breaker struct {
	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	openUntil   time.Time

	threshold int
	window    time.Duration
	cooldown  time.Duration
}

// NewBreaker creates a Breaker. Zero or negative arguments fall back to
// 3 failures / 30s window / 60s cooldown.
func NewBreaker(threshold int, window, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 3
	}
	if window <= 0 {
		window = 30 * time.Second
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	return &Breaker{threshold: threshold, window: window, cooldown: cooldown}
}

// Open reports whether calls should currently be skipped.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return time.Now().Before(b.openUntil)
}

// Failure records a failed call, possibly tripping the breaker.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	if now.Sub(b.lastFailure) > b.window {
		b.failures = 0
	}
	b.failures++
	b.lastFailure = now
	if b.failures >= b.threshold {
		b.openUntil = now.Add(b.cooldown)
	}
}

// Success resets the failure count.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}
