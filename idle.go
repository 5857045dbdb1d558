package session

import (
	"sync"
	"time"
)

// IdleState enumerates the idle-timeout monitor states.
type IdleState string

const (
	IdleStateArmed   IdleState = "armed"
	IdleStateWarning IdleState = "warning"
	IdleStateExpired IdleState = "expired"
)

const (
	// DefaultTimeoutMinutes applies when the preference store has no value
	// for the user.
	DefaultTimeoutMinutes = 30
	// DefaultWarningLead is how long before expiry the warning prompt fires.
	DefaultWarningLead = 2 * time.Minute
)

// IdleMonitor is the idle-timeout state machine. It arms a timer for the
// configured timeout, optionally surfaces a warning shortly before expiry,
// and fires the expire callback exactly once when the timeout elapses with
// no activity.
type IdleMonitor struct {
	mu          sync.Mutex
	state       IdleState
	active      bool
	timeout     time.Duration // duration backing the currently armed timer
	configured  time.Duration // duration applied on the next re-arm
	warningLead time.Duration
	expireTimer *time.Timer
	warnTimer   *time.Timer
	onExpire    func()
	onWarning   func()
	logger      Logger
	transitions map[IdleState]map[IdleState]struct{}
}

// IdleOption customizes monitor construction.
type IdleOption func(*IdleMonitor)

// WithIdleWarning surfaces a user-acknowledgeable prompt before expiry.
// Acknowledge re-arms the timer exactly as activity does.
func WithIdleWarning(fn func()) IdleOption {
	return func(m *IdleMonitor) {
		m.onWarning = fn
	}
}

// WithIdleWarningLead overrides how long before expiry the warning fires.
func WithIdleWarningLead(lead time.Duration) IdleOption {
	return func(m *IdleMonitor) {
		if lead > 0 {
			m.warningLead = lead
		}
	}
}

// WithIdleLogger overrides the logger.
func WithIdleLogger(logger Logger) IdleOption {
	return func(m *IdleMonitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewIdleMonitor returns a monitor that calls onExpire after timeout elapses
// without activity. The monitor is inert until Start.
func NewIdleMonitor(timeout time.Duration, onExpire func(), opts ...IdleOption) *IdleMonitor {
	m := &IdleMonitor{
		timeout:     timeout,
		configured:  timeout,
		warningLead: DefaultWarningLead,
		onExpire:    onExpire,
		logger:      defLogger{},
		transitions: map[IdleState]map[IdleState]struct{}{
			IdleStateArmed: {
				IdleStateArmed:   {},
				IdleStateWarning: {},
				IdleStateExpired: {},
			},
			IdleStateWarning: {
				IdleStateArmed:   {},
				IdleStateExpired: {},
			},
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Start arms the timer. Calling Start on a running monitor re-arms it.
func (m *IdleMonitor) Start() {
	m.mu.Lock()
	m.active = true
	m.state = IdleStateArmed
	m.timeout = m.configured
	m.armLocked()
	m.mu.Unlock()
}

// Extend re-arms the timer to the full configured duration from now. It is a
// no-op once the monitor has expired or been stopped.
func (m *IdleMonitor) Extend() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active || !m.canTransition(m.state, IdleStateArmed) {
		return
	}

	m.state = IdleStateArmed
	m.timeout = m.configured
	m.armLocked()
}

// Acknowledge handles the user dismissing the warning prompt; it re-arms
// exactly as activity does.
func (m *IdleMonitor) Acknowledge() {
	m.Extend()
}

// SetTimeout changes the configured duration. The change applies on the next
// re-arm only; it never retroactively shortens or extends an armed timer.
func (m *IdleMonitor) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	m.mu.Lock()
	m.configured = timeout
	m.mu.Unlock()
}

// State returns the current machine state.
func (m *IdleMonitor) State() IdleState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Stop cancels all timers. Safe to call repeatedly.
func (m *IdleMonitor) Stop() {
	m.mu.Lock()
	m.active = false
	m.stopTimersLocked()
	m.mu.Unlock()
}

func (m *IdleMonitor) canTransition(from, to IdleState) bool {
	if allowed, ok := m.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (m *IdleMonitor) armLocked() {
	m.stopTimersLocked()

	d := m.timeout
	if m.onWarning != nil && d > m.warningLead {
		m.warnTimer = time.AfterFunc(d-m.warningLead, m.warn)
	}
	m.expireTimer = time.AfterFunc(d, m.expire)
}

func (m *IdleMonitor) stopTimersLocked() {
	if m.expireTimer != nil {
		m.expireTimer.Stop()
		m.expireTimer = nil
	}
	if m.warnTimer != nil {
		m.warnTimer.Stop()
		m.warnTimer = nil
	}
}

func (m *IdleMonitor) warn() {
	m.mu.Lock()
	if !m.active || !m.canTransition(m.state, IdleStateWarning) {
		m.mu.Unlock()
		return
	}
	m.state = IdleStateWarning
	cb := m.onWarning
	m.mu.Unlock()

	m.logger.Debug("idle monitor entering warning state")
	if cb != nil {
		cb()
	}
}

func (m *IdleMonitor) expire() {
	m.mu.Lock()
	if !m.active || !m.canTransition(m.state, IdleStateExpired) {
		m.mu.Unlock()
		return
	}
	m.state = IdleStateExpired
	m.active = false
	m.stopTimersLocked()
	cb := m.onExpire
	d := m.timeout
	m.mu.Unlock()

	m.logger.Info("idle monitor expired after %s without activity", d)
	if cb != nil {
		cb()
	}
}
