package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_TripsAfterThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute, time.Minute)

	b.Failure()
	b.Failure()
	assert.False(t, b.Open())

	b.Failure()
	assert.True(t, b.Open())
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	b := NewBreaker(3, time.Minute, time.Minute)

	b.Failure()
	b.Failure()
	b.Success()
	b.Failure()
	b.Failure()
	assert.False(t, b.Open())
}

func TestBreaker_ClosesAfterCooldown(t *testing.T) {
	b := NewBreaker(1, time.Minute, 10*time.Millisecond)

	b.Failure()
	assert.True(t, b.Open())

	time.Sleep(20 * time.Millisecond)
	assert.False(t, b.Open())
}

func TestBreaker_WindowResetsStaleFailures(t *testing.T) {
	b := NewBreaker(2, 10*time.Millisecond, time.Minute)

	b.Failure()
	time.Sleep(20 * time.Millisecond)
	b.Failure()
	assert.False(t, b.Open())
}
