package session

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// SignOutScope controls how far a backend sign-out reaches.
type SignOutScope string

const (
	// ScopeLocal revokes only the current session.
	ScopeLocal SignOutScope = "local"
	// ScopeGlobal revokes every session the account holds.
	ScopeGlobal SignOutScope = "global"
)

// AuthService is the backend auth capability the Store delegates to. Its
// internals (credential validation, token issuance) are opaque to this
// package.
type AuthService interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, data map[string]any) (*Session, error)
	SignOut(ctx context.Context, scope SignOutScope) error
	ResetPasswordForEmail(ctx context.Context, email string) error
	GetSession(ctx context.Context) (*Session, error)
}

// StatusChecker queries the authoritative account-status endpoint. Both the
// reconciler poll and push-triggered re-fetches go through here.
type StatusChecker interface {
	Check(ctx context.Context, userID string) (StatusSnapshot, error)
}

// ChangeFeed is a push subscription keyed by user id. Events on the returned
// channel are re-check signals only; payloads are never trusted. The returned
// func unsubscribes and releases the channel.
type ChangeFeed interface {
	Subscribe(ctx context.Context, userID string) (<-chan struct{}, func(), error)
}

// Navigator is the client router port. Destinations may carry query
// parameters already encoded.
type Navigator interface {
	Go(dest string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(dest string)

// Go implements Navigator.
func (f NavigatorFunc) Go(dest string) {
	if f != nil {
		f(dest)
	}
}

// PreferenceStore reads the per-user idle timeout, in minutes. It is
// consulted once per session; absence or failure falls back to the default.
type PreferenceStore interface {
	IdleTimeout(ctx context.Context, userID string) (int, error)
}

// SupportContact carries institution contact details surfaced alongside a
// banned-account login failure.
type SupportContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// SupportDirectory resolves the support contact used for user-facing
// remediation messaging.
type SupportDirectory interface {
	Contact(ctx context.Context) (SupportContact, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
