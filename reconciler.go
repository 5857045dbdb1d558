package session

import (
	"context"
	"sync"
	"time"
)

// DefaultPollInterval is how often the reconciler re-fetches account status
// when no push events arrive.
const DefaultPollInterval = 60 * time.Second

// Reconciler keeps a live session honest against administrative actions taken
// out of band. Two triggers converge on the same classification: a fixed-rate
// poll and a push subscription whose events are treated strictly as re-check
// signals.
type Reconciler struct {
	userID   string
	checker  StatusChecker
	feed     ChangeFeed
	interval time.Duration
	logger   Logger

	onHardBlock func(StatusSnapshot)
	onAdvisory  func(VerificationAdvisory)

	mu          sync.Mutex
	snapshot    *StatusSnapshot
	advisory    VerificationAdvisory
	hardBlocked bool
	cancel      context.CancelFunc
	started     bool
}

// ReconcilerOption customizes reconciler construction.
type ReconcilerOption func(*Reconciler)

// WithReconcilerFeed attaches the push change feed. Without one the
// reconciler falls back to poll-only operation.
func WithReconcilerFeed(feed ChangeFeed) ReconcilerOption {
	return func(r *Reconciler) {
		r.feed = feed
	}
}

// WithReconcilerInterval overrides the poll interval.
func WithReconcilerInterval(interval time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithReconcilerLogger overrides the logger.
func WithReconcilerLogger(logger Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithReconcilerAdvisoryHandler is called whenever the verification advisory
// changes, set or cleared.
func WithReconcilerAdvisoryHandler(fn func(VerificationAdvisory)) ReconcilerOption {
	return func(r *Reconciler) {
		r.onAdvisory = fn
	}
}

// NewReconciler builds a reconciler for the given user. onHardBlock fires
// exactly once per transition into a hard-blocked state; the callback owns
// the forced sign-out.
func NewReconciler(userID string, checker StatusChecker, onHardBlock func(StatusSnapshot), opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		userID:      userID,
		checker:     checker,
		interval:    DefaultPollInterval,
		logger:      defLogger{},
		onHardBlock: onHardBlock,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Start launches the poll loop and, when a feed is configured, the push
// subscription. Both are canceled by Stop.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()

	go r.pollLoop(ctx)

	if r.feed != nil {
		go r.feedLoop(ctx)
	}
}

// Stop cancels the poll loop and the push subscription. It does not wait for
// in-flight fetches; their results are discarded by the cancellation check on
// apply. Safe to call from inside classification callbacks.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.started = false
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Check fetches a fresh snapshot and applies its classification. Exposed so
// callers can force an immediate reconciliation.
func (r *Reconciler) Check(ctx context.Context) {
	snap, err := r.checker.Check(ctx, r.userID)
	if err != nil {
		// Fail open: keep the previous classification until the next
		// successful check.
		r.logger.Warn("status check failed, keeping previous snapshot: %v", err)
		return
	}
	if ctx.Err() != nil {
		return
	}
	r.apply(snap.EnsureType())
}

// Snapshot returns the most recently applied snapshot, nil before the first
// successful check.
func (r *Reconciler) Snapshot() *StatusSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snapshot == nil {
		return nil
	}
	snap := *r.snapshot
	return &snap
}

// Advisory returns the current verification advisory.
func (r *Reconciler) Advisory() VerificationAdvisory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.advisory
}

func (r *Reconciler) pollLoop(ctx context.Context) {
	// One immediate reconciliation so a stale block does not wait a full
	// interval after sign-in.
	r.Check(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Check(ctx)
		}
	}
}

func (r *Reconciler) feedLoop(ctx context.Context) {
	events, unsubscribe, err := r.feed.Subscribe(ctx, r.userID)
	if err != nil {
		// Poll-only degradation; push is an optimization, not a correctness
		// requirement.
		r.logger.Warn("change feed subscribe failed: %v", err)
		return
	}
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			// The pushed payload is never trusted; re-fetch the
			// authoritative snapshot instead.
			r.Check(ctx)
		}
	}
}

// apply runs the classification atomically. Results land in completion
// order; a snapshot applied here fully supersedes the previous one.
func (r *Reconciler) apply(snap StatusSnapshot) {
	var (
		fireHard     func(StatusSnapshot)
		fireAdvisory func(VerificationAdvisory)
		advisory     VerificationAdvisory
	)

	r.mu.Lock()
	r.snapshot = &snap

	switch {
	case !snap.Blocked:
		if r.advisory.Required {
			r.advisory = VerificationAdvisory{}
			fireAdvisory = r.onAdvisory
		}
		r.hardBlocked = false

	case snap.BlockingType == BlockingVerification:
		next := VerificationAdvisory{Required: true, Reason: snap.Reason}
		if r.advisory != next {
			r.advisory = next
			fireAdvisory = r.onAdvisory
		}

	case snap.BlockingType.Hard():
		if r.advisory.Required {
			r.advisory = VerificationAdvisory{}
			fireAdvisory = r.onAdvisory
		}
		if !r.hardBlocked {
			r.hardBlocked = true
			fireHard = r.onHardBlock
		}
	}

	advisory = r.advisory
	r.mu.Unlock()

	if fireAdvisory != nil {
		fireAdvisory(advisory)
	}
	if fireHard != nil {
		fireHard(snap)
	}
}
