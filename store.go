package session

import (
	"context"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// TimeoutPolicy is the per-user idle configuration, fetched once per session
// and cached until sign-out.
type TimeoutPolicy struct {
	Minutes int
}

// Duration converts the policy to a timer duration.
func (p TimeoutPolicy) Duration() time.Duration {
	return time.Duration(p.Minutes) * time.Minute
}

// Valid reports whether the policy can arm a timer.
func (p TimeoutPolicy) Valid() bool {
	return p.Minutes > 0
}

// Store is the single source of truth for who is signed in. It owns the
// Session/User pair, the four primitive operations, and the lifecycle of the
// idle monitor and status reconciler. No other component may initiate a
// sign-out.
type Store struct {
	auth    AuthService
	checker StatusChecker
	feed    ChangeFeed
	prefs   PreferenceStore
	support SupportDirectory
	audit   AuditSink
	router  *TransitionRouter
	logger  Logger

	pollInterval   time.Duration
	throttleWindow time.Duration
	warningLead    time.Duration
	onWarning      func()
	onExpired      func()
	onAdvisory     func(VerificationAdvisory)

	mu      sync.Mutex
	session *Session
	user    *User
	policy  TimeoutPolicy
	tracker *Tracker
	idle    *IdleMonitor
	recon   *Reconciler
}

// NewStore returns a Store delegating credential operations to auth.
func NewStore(auth AuthService) *Store {
	return &Store{
		auth:           auth,
		audit:          noopAuditSink{},
		logger:         defLogger{},
		pollInterval:   DefaultPollInterval,
		throttleWindow: DefaultThrottleWindow,
		warningLead:    DefaultWarningLead,
	}
}

func (s *Store) WithLogger(logger Logger) *Store {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithStatusChecker enables the pre-acceptance ban check and the status
// reconciler.
func (s *Store) WithStatusChecker(checker StatusChecker) *Store {
	s.checker = checker
	return s
}

// WithChangeFeed attaches the push subscription used by the reconciler.
func (s *Store) WithChangeFeed(feed ChangeFeed) *Store {
	s.feed = feed
	return s
}

// WithPreferenceStore reads per-user idle timeouts from prefs; absence falls
// back to DefaultTimeoutMinutes.
func (s *Store) WithPreferenceStore(prefs PreferenceStore) *Store {
	s.prefs = prefs
	return s
}

// WithSupportDirectory resolves contact details for banned-account errors.
func (s *Store) WithSupportDirectory(support SupportDirectory) *Store {
	s.support = support
	return s
}

// WithAuditSink configures the audit emitter for session events.
func (s *Store) WithAuditSink(sink AuditSink) *Store {
	s.audit = normalizeAuditSink(sink)
	return s
}

// WithTransitionRouter wires post-sign-in/sign-out navigation.
func (s *Store) WithTransitionRouter(router *TransitionRouter) *Store {
	s.router = router
	return s
}

// WithPollInterval overrides the reconciler poll interval.
func (s *Store) WithPollInterval(interval time.Duration) *Store {
	if interval > 0 {
		s.pollInterval = interval
	}
	return s
}

// WithThrottleWindow overrides the activity coalescing window.
func (s *Store) WithThrottleWindow(window time.Duration) *Store {
	if window > 0 {
		s.throttleWindow = window
	}
	return s
}

// WithWarningLead overrides how long before expiry the idle warning fires.
func (s *Store) WithWarningLead(lead time.Duration) *Store {
	if lead > 0 {
		s.warningLead = lead
	}
	return s
}

// WithWarningHandler surfaces the idle warning prompt. Call
// AcknowledgeWarning when the user dismisses it.
func (s *Store) WithWarningHandler(fn func()) *Store {
	s.onWarning = fn
	return s
}

// WithExpiredHandler surfaces the "session expired" notice after an idle
// forced sign-out.
func (s *Store) WithExpiredHandler(fn func()) *Store {
	s.onExpired = fn
	return s
}

// WithAdvisoryHandler observes verification advisory changes, set and
// cleared.
func (s *Store) WithAdvisoryHandler(fn func(VerificationAdvisory)) *Store {
	s.onAdvisory = fn
	return s
}

type credentials struct {
	Email    string
	Password string
}

// Validate will run validation rules
func (c credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(
			&c.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&c.Password,
			validation.Required,
		),
	)
}

// SignIn authenticates against the backend and, before accepting the
// session, checks whether the account is administratively banned. A banned
// account has every session revoked and gets a structured error carrying the
// ban reason and support contact. Every failure path is audited.
func (s *Store) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if err := (credentials{Email: email, Password: password}).Validate(); err != nil {
		s.emitAudit(ctx, AuditEvent{
			EventType: AuditEventLoginFailure,
			Email:     email,
			Reason:    err.Error(),
		})
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid sign in payload").
			WithCode(goerrors.CodeBadRequest)
	}

	sess, err := s.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.logger.Error("sign in failed: %v", err)
		s.emitAudit(ctx, AuditEvent{
			EventType: AuditEventLoginFailure,
			Email:     email,
			Reason:    err.Error(),
		})
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "sign in failed").
			WithTextCode(textCodeInvalidCredentials).
			WithCode(goerrors.CodeUnauthorized)
	}

	if sess == nil || sess.User == nil {
		s.emitAudit(ctx, AuditEvent{
			EventType: AuditEventLoginFailure,
			Email:     email,
			Reason:    "backend returned no session",
		})
		return nil, ErrInvalidCredentials
	}

	if s.checker != nil {
		snap, err := s.checker.Check(ctx, sess.User.ID)
		if err != nil {
			// A transient status failure must not lock a legitimate user
			// out; the reconciler re-checks once the session is live.
			s.logger.Warn("post-login status check failed: %v", err)
		} else if snap = snap.EnsureType(); snap.BlockingType == BlockingBanned {
			return nil, s.rejectBanned(ctx, email, sess.User, snap)
		}
	}

	s.adopt(ctx, sess)

	s.emitAudit(ctx, AuditEvent{
		EventType: AuditEventLoginSuccess,
		Actor:     actorFromUser(sess.User),
		Email:     email,
	})

	return sess, nil
}

// SignUp delegates to the backend; no additional policy. A returned session
// (some backends withhold it until email confirmation) is adopted as if the
// user had signed in.
func (s *Store) SignUp(ctx context.Context, email, password string, data map[string]any) (*Session, error) {
	if err := (credentials{Email: email, Password: password}).Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid sign up payload").
			WithCode(goerrors.CodeBadRequest)
	}

	sess, err := s.auth.SignUp(ctx, email, password, data)
	if err != nil {
		s.logger.Error("sign up failed: %v", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "sign up failed").
			WithCode(goerrors.CodeUnauthorized)
	}

	if sess != nil && sess.User != nil {
		s.adopt(ctx, sess)
		s.emitAudit(ctx, AuditEvent{
			EventType: AuditEventSignUp,
			Actor:     actorFromUser(sess.User),
			Email:     email,
		})
	}

	return sess, nil
}

// SignOut ends the current session: audit, backend sign-out, local teardown,
// navigation to the sign-in screen. Calling it with no live session is a
// no-op.
func (s *Store) SignOut(ctx context.Context) error {
	return s.terminate(ctx, "user sign out", StatusSnapshot{})
}

// ResetPassword requests a password reset email through the backend and
// audits the request on success only.
func (s *Store) ResetPassword(ctx context.Context, email string) error {
	handler := &ResetPasswordHandler{
		auth:   s.auth,
		audit:  s.audit,
		logger: s.logger,
	}
	return handler.Execute(ctx, ResetPasswordMessage{Email: email})
}

// Restore adopts an existing backend session, e.g. on portal startup. It
// returns nil without error when the backend has none or it already expired.
func (s *Store) Restore(ctx context.Context) (*Session, error) {
	sess, err := s.auth.GetSession(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to restore session")
	}

	if sess == nil || sess.User == nil || sess.Expired(time.Now()) {
		return nil, nil
	}

	s.adopt(ctx, sess)
	return sess, nil
}

// Touch records a user interaction event; bursts are coalesced by the
// tracker before they reach the idle timer.
func (s *Store) Touch() {
	s.mu.Lock()
	tracker := s.tracker
	s.mu.Unlock()

	if tracker != nil {
		tracker.Touch()
	}
}

// AcknowledgeWarning handles the user dismissing the idle warning prompt.
func (s *Store) AcknowledgeWarning() {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	if idle != nil {
		idle.Acknowledge()
	}
}

// RefreshPolicy re-reads the per-user timeout preference mid-session. The
// new duration applies on the next re-arm; an already armed timer keeps its
// duration.
func (s *Store) RefreshPolicy(ctx context.Context) {
	s.mu.Lock()
	user, idle := s.user, s.idle
	s.mu.Unlock()

	if user == nil || idle == nil {
		return
	}

	policy := s.fetchPolicy(ctx, user.ID)

	s.mu.Lock()
	s.policy = policy
	s.mu.Unlock()

	idle.SetTimeout(policy.Duration())
}

// Session returns the live session, nil when signed out.
func (s *Store) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// User returns the authenticated user, nil when signed out.
func (s *Store) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Authenticated reports whether a session is live.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// Policy returns the cached timeout policy for the live session.
func (s *Store) Policy() TimeoutPolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy
}

// LastActive returns the activity clock, zero when signed out or untouched.
func (s *Store) LastActive() time.Time {
	s.mu.Lock()
	tracker := s.tracker
	s.mu.Unlock()

	if tracker == nil {
		return time.Time{}
	}
	return tracker.LastActive()
}

// IdleState exposes the idle monitor state, empty when signed out.
func (s *Store) IdleState() IdleState {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	if idle == nil {
		return ""
	}
	return idle.State()
}

// Advisory returns the current verification advisory.
func (s *Store) Advisory() VerificationAdvisory {
	s.mu.Lock()
	recon := s.recon
	s.mu.Unlock()

	if recon == nil {
		return VerificationAdvisory{}
	}
	return recon.Advisory()
}

// Status returns the last applied account-status snapshot, nil before the
// first successful check or when signed out.
func (s *Store) Status() *StatusSnapshot {
	s.mu.Lock()
	recon := s.recon
	s.mu.Unlock()

	if recon == nil {
		return nil
	}
	return recon.Snapshot()
}

// Close releases timers and subscriptions without a backend sign-out, for
// component teardown.
func (s *Store) Close() {
	s.mu.Lock()
	s.teardownLocked()
	s.session = nil
	s.user = nil
	s.mu.Unlock()
}

// adopt replaces the live session wholesale and restarts the monitoring
// components so nothing from a previous session leaks into the new one.
func (s *Store) adopt(ctx context.Context, sess *Session) {
	policy := s.fetchPolicy(ctx, sess.User.ID)

	s.mu.Lock()
	s.teardownLocked()

	s.session = sess
	s.user = sess.User
	s.policy = policy

	idleOpts := []IdleOption{
		WithIdleLogger(s.logger),
		WithIdleWarningLead(s.warningLead),
	}
	if s.onWarning != nil {
		idleOpts = append(idleOpts, WithIdleWarning(s.onWarning))
	}
	idle := NewIdleMonitor(policy.Duration(), s.expire, idleOpts...)

	s.idle = idle
	s.tracker = NewTracker(s.throttleWindow, idle.Extend)

	var recon *Reconciler
	if s.checker != nil {
		recon = NewReconciler(sess.User.ID, s.checker, s.hardBlock,
			WithReconcilerFeed(s.feed),
			WithReconcilerInterval(s.pollInterval),
			WithReconcilerLogger(s.logger),
			WithReconcilerAdvisoryHandler(s.onAdvisory),
		)
		s.recon = recon
	}
	s.mu.Unlock()

	idle.Start()
	if recon != nil {
		recon.Start(context.Background())
	}
}

// terminate is the single forced/voluntary sign-out path. Local state is
// cleared even when the backend call fails so the UI cannot stay stuck
// appearing signed in.
func (s *Store) terminate(ctx context.Context, reason string, snap StatusSnapshot) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return nil
	}
	user := s.user
	s.teardownLocked()
	s.session = nil
	s.user = nil
	s.mu.Unlock()

	email := ""
	if user != nil {
		email = user.Email
	}

	if err := s.auth.SignOut(ctx, ScopeLocal); err != nil {
		s.logger.Error("backend sign-out failed: %v", err)
		s.emitAudit(ctx, AuditEvent{
			EventType: AuditEventLogoutError,
			Actor:     actorFromUser(user),
			Email:     email,
			Reason:    err.Error(),
		})
	} else {
		s.emitAudit(ctx, AuditEvent{
			EventType: AuditEventLogout,
			Actor:     actorFromUser(user),
			Email:     email,
			Reason:    reason,
		})
	}

	if s.router != nil {
		s.router.SignedOut(snap.BlockingType, snap.Reason)
	}

	return nil
}

func (s *Store) teardownLocked() {
	if s.idle != nil {
		s.idle.Stop()
		s.idle = nil
	}
	if s.recon != nil {
		s.recon.Stop()
		s.recon = nil
	}
	if s.tracker != nil {
		s.tracker.Reset()
		s.tracker = nil
	}
	s.policy = TimeoutPolicy{}
}

func (s *Store) rejectBanned(ctx context.Context, email string, user *User, snap StatusSnapshot) error {
	// Revoke every session the account holds, not just the one the backend
	// just created.
	if err := s.auth.SignOut(ctx, ScopeGlobal); err != nil {
		s.logger.Error("global sign-out for banned account failed: %v", err)
	}

	contact := SupportContact{}
	if s.support != nil {
		c, err := s.support.Contact(ctx)
		if err != nil {
			s.logger.Warn("support contact lookup failed: %v", err)
		} else {
			contact = c
		}
	}

	s.emitAudit(ctx, AuditEvent{
		EventType: AuditEventLoginFailure,
		Actor:     actorFromUser(user),
		Email:     email,
		Reason:    snap.Reason,
		Metadata: map[string]any{
			"blocking_type": snap.BlockingType,
		},
	})

	return NewAccountBannedError(snap.Reason, contact)
}

func (s *Store) expire() {
	s.logger.Info("session expired after idle timeout")
	_ = s.terminate(context.Background(), "idle timeout", StatusSnapshot{})

	if s.onExpired != nil {
		s.onExpired()
	}
}

func (s *Store) hardBlock(snap StatusSnapshot) {
	s.logger.Warn("account blocked (%s), ending session: %s", snap.BlockingType, snap.Reason)
	_ = s.terminate(context.Background(), string(snap.BlockingType), snap)
}

func (s *Store) fetchPolicy(ctx context.Context, userID string) TimeoutPolicy {
	policy := TimeoutPolicy{Minutes: DefaultTimeoutMinutes}
	if s.prefs == nil {
		return policy
	}

	minutes, err := s.prefs.IdleTimeout(ctx, userID)
	if err != nil {
		s.logger.Warn("timeout preference lookup failed, using default: %v", err)
		return policy
	}
	if minutes > 0 {
		policy.Minutes = minutes
	}

	return policy
}

func (s *Store) emitAudit(ctx context.Context, event AuditEvent) {
	sink := normalizeAuditSink(s.audit)

	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "unknown"}
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("audit sink record error: %v", err)
	}
}

func actorFromUser(user *User) ActorRef {
	if user == nil {
		return ActorRef{Type: "unknown"}
	}
	return ActorRef{
		ID:   user.ID,
		Type: "user",
	}
}
