package session

import (
	"sync"
	"time"
)

// DefaultThrottleWindow bounds how often a burst of raw activity events may
// reset the idle timer.
const DefaultThrottleWindow = time.Second

// Tracker observes user interaction events and maintains the time of last
// observed activity. Touch is safe to call from event handlers at raw event
// frequency; downstream notification is throttled.
type Tracker struct {
	mu         sync.Mutex
	lastActive time.Time
	throttle   *Throttle
	now        func() time.Time
}

// TrackerOption customizes Tracker construction.
type TrackerOption func(*Tracker)

// WithTrackerClock injects a custom clock (useful for tests).
func WithTrackerClock(clock func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if clock != nil {
			t.now = clock
		}
	}
}

// NewTracker builds a tracker that invokes onActive at most once per window
// regardless of how many raw events Touch observes.
func NewTracker(window time.Duration, onActive func(), opts ...TrackerOption) *Tracker {
	if window <= 0 {
		window = DefaultThrottleWindow
	}

	t := &Tracker{now: time.Now}

	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}

	t.throttle = NewThrottle(window, func() {
		t.mu.Lock()
		t.lastActive = t.now()
		t.mu.Unlock()
		if onActive != nil {
			onActive()
		}
	}, WithThrottleClock(t.now))

	return t
}

// Touch records an interaction event.
func (t *Tracker) Touch() {
	t.throttle.Do()
}

// LastActive returns the time of the last coalesced activity event, zero if
// none has been observed.
func (t *Tracker) LastActive() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastActive
}

// Reset clears the activity clock so no state leaks into a new session.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.lastActive = time.Time{}
	t.mu.Unlock()
	t.throttle.Reset()
}
