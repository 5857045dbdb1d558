package session_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
)

func TestThrottleCoalescesBursts(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	count := 0
	throttle := session.NewThrottle(time.Second, func() { count++ },
		session.WithThrottleClock(clock))

	for i := 0; i < 50; i++ {
		throttle.Do()
	}
	assert.Equal(t, 1, count, "a burst within one window runs the function once")

	now = now.Add(1100 * time.Millisecond)
	for i := 0; i < 50; i++ {
		throttle.Do()
	}
	assert.Equal(t, 2, count, "a new window admits exactly one more run")
}

func TestThrottleAdmitsSpacedCalls(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	count := 0
	throttle := session.NewThrottle(time.Second, func() { count++ },
		session.WithThrottleClock(clock))

	for i := 0; i < 5; i++ {
		throttle.Do()
		now = now.Add(time.Second)
	}

	assert.Equal(t, 5, count)
}

func TestThrottleReset(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	count := 0
	throttle := session.NewThrottle(time.Second, func() { count++ },
		session.WithThrottleClock(clock))

	throttle.Do()
	throttle.Do()
	assert.Equal(t, 1, count)

	throttle.Reset()
	throttle.Do()
	assert.Equal(t, 2, count, "reset reopens the window immediately")
}
