package session

import (
	"sync"
	"time"
)

// Throttle coalesces bursts of calls so the wrapped function runs at most
// once per window. Raw interaction events (pointer moves, keypresses,
// scrolling) can fire at very high frequency; the idle timer reset sits on
// that hot path.
type Throttle struct {
	mu     sync.Mutex
	window time.Duration
	fn     func()
	last   time.Time
	now    func() time.Time
}

// ThrottleOption customizes Throttle construction.
type ThrottleOption func(*Throttle)

// WithThrottleClock injects a custom clock (useful for tests).
func WithThrottleClock(clock func() time.Time) ThrottleOption {
	return func(t *Throttle) {
		if clock != nil {
			t.now = clock
		}
	}
}

// NewThrottle wraps fn with a leading-edge throttle over the given window.
func NewThrottle(window time.Duration, fn func(), opts ...ThrottleOption) *Throttle {
	t := &Throttle{
		window: window,
		fn:     fn,
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}

	return t
}

// Do invokes the wrapped function if a full window has elapsed since the
// previous invocation, and drops the call otherwise.
func (t *Throttle) Do() {
	t.mu.Lock()
	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.window {
		t.mu.Unlock()
		return
	}
	t.last = now
	fn := t.fn
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Reset clears the window so the next Do fires immediately.
func (t *Throttle) Reset() {
	t.mu.Lock()
	t.last = time.Time{}
	t.mu.Unlock()
}
