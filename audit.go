package session

import (
	"context"
	"time"
)

// AuditEventType enumerates supported audit categories.
type AuditEventType string

const (
	AuditEventLoginSuccess           AuditEventType = "session.login.success"
	AuditEventLoginFailure           AuditEventType = "session.login.failure"
	AuditEventSignUp                 AuditEventType = "session.signup"
	AuditEventLogout                 AuditEventType = "session.logout"
	AuditEventLogoutError            AuditEventType = "session.logout.error"
	AuditEventPasswordResetRequested AuditEventType = "session.password.reset.requested"
)

// ActorRef identifies who/what triggered an audited action.
type ActorRef struct {
	ID   string
	Type string
}

// AuditEvent captures audit-friendly information about an action.
type AuditEvent struct {
	EventType  AuditEventType
	Actor      ActorRef
	Email      string
	Reason     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// AuditSink consumes audit events. Sinks are fire-and-forget: the Store logs
// failures but never lets them block a primitive operation.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent) error
}

// AuditSinkFunc adapts a function to the AuditSink interface.
type AuditSinkFunc func(ctx context.Context, event AuditEvent) error

// Record implements AuditSink.
func (f AuditSinkFunc) Record(ctx context.Context, event AuditEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopAuditSink struct{}

func (noopAuditSink) Record(context.Context, AuditEvent) error {
	return nil
}

func normalizeAuditSink(s AuditSink) AuditSink {
	if s == nil {
		return noopAuditSink{}
	}
	return s
}
