package session_test

import (
	"context"
	"sync"

	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/mock"
)

// MockAuthService implements session.AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignInWithPassword(ctx context.Context, email, password string) (*session.Session, error) {
	args := m.Called(ctx, email, password)
	sess, _ := args.Get(0).(*session.Session)
	return sess, args.Error(1)
}

func (m *MockAuthService) SignUp(ctx context.Context, email, password string, data map[string]any) (*session.Session, error) {
	args := m.Called(ctx, email, password, data)
	sess, _ := args.Get(0).(*session.Session)
	return sess, args.Error(1)
}

func (m *MockAuthService) SignOut(ctx context.Context, scope session.SignOutScope) error {
	args := m.Called(ctx, scope)
	return args.Error(0)
}

func (m *MockAuthService) ResetPasswordForEmail(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockAuthService) GetSession(ctx context.Context) (*session.Session, error) {
	args := m.Called(ctx)
	sess, _ := args.Get(0).(*session.Session)
	return sess, args.Error(1)
}

// MockSupportDirectory implements session.SupportDirectory
type MockSupportDirectory struct {
	mock.Mock
}

func (m *MockSupportDirectory) Contact(ctx context.Context) (session.SupportContact, error) {
	args := m.Called(ctx)
	contact, _ := args.Get(0).(session.SupportContact)
	return contact, args.Error(1)
}

// stubChecker serves a programmable sequence of status snapshots.
type stubChecker struct {
	mu    sync.Mutex
	snap  session.StatusSnapshot
	err   error
	calls int
}

func (s *stubChecker) set(snap session.StatusSnapshot, err error) {
	s.mu.Lock()
	s.snap = snap
	s.err = err
	s.mu.Unlock()
}

func (s *stubChecker) Check(ctx context.Context, userID string) (session.StatusSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.snap, s.err
}

func (s *stubChecker) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubFeed is an in-memory change feed.
type stubFeed struct {
	mu       sync.Mutex
	events   chan struct{}
	unsubbed bool
	err      error
}

func newStubFeed() *stubFeed {
	return &stubFeed{events: make(chan struct{}, 8)}
}

func (f *stubFeed) Subscribe(ctx context.Context, userID string) (<-chan struct{}, func(), error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.events, func() {
		f.mu.Lock()
		f.unsubbed = true
		f.mu.Unlock()
	}, nil
}

func (f *stubFeed) push() {
	f.events <- struct{}{}
}

func (f *stubFeed) unsubscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubbed
}

// stubPrefs serves a fixed timeout preference.
type stubPrefs struct {
	minutes int
	err     error
	calls   int
}

func (p *stubPrefs) IdleTimeout(ctx context.Context, userID string) (int, error) {
	p.calls++
	return p.minutes, p.err
}

// capturingSink records audit events.
type capturingSink struct {
	mu     sync.Mutex
	events []session.AuditEvent
	err    error
}

func (c *capturingSink) Record(ctx context.Context, event session.AuditEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return c.err
}

func (c *capturingSink) byType(t session.AuditEventType) []session.AuditEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []session.AuditEvent
	for _, evt := range c.events {
		if evt.EventType == t {
			out = append(out, evt)
		}
	}
	return out
}

// capturingNavigator records navigation destinations.
type capturingNavigator struct {
	mu    sync.Mutex
	dests []string
}

func (n *capturingNavigator) Go(dest string) {
	n.mu.Lock()
	n.dests = append(n.dests, dest)
	n.mu.Unlock()
}

func (n *capturingNavigator) destinations() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.dests...)
}
