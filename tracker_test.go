package session_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
)

func TestTrackerCoalescesActivityEvents(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	resets := 0
	tracker := session.NewTracker(time.Second, func() { resets++ },
		session.WithTrackerClock(clock))

	for i := 0; i < 100; i++ {
		tracker.Touch()
	}

	assert.Equal(t, 1, resets, "N raw events within one window produce one reset")
	assert.Equal(t, now, tracker.LastActive())

	now = now.Add(2 * time.Second)
	tracker.Touch()
	assert.Equal(t, 2, resets)
	assert.Equal(t, now, tracker.LastActive())
}

func TestTrackerReset(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	tracker := session.NewTracker(time.Second, func() {},
		session.WithTrackerClock(clock))

	tracker.Touch()
	assert.False(t, tracker.LastActive().IsZero())

	tracker.Reset()
	assert.True(t, tracker.LastActive().IsZero(), "no activity survives a reset")

	tracker.Touch()
	assert.False(t, tracker.LastActive().IsZero(), "reset reopens the throttle window")
}
