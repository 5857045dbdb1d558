package session

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// ResetPasswordMessage requests a password reset email for an account.
type ResetPasswordMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Customer email."`
	OnResponse func(resp *ResetPasswordResponse)
}

func (p ResetPasswordMessage) Type() string { return "session.password_reset" }

// Validate will run validation rules
func (p ResetPasswordMessage) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(
			&p.Email,
			validation.Required,
			is.Email,
		),
	)
}

type ResetPasswordResponse struct {
	Email   string
	Success bool
}

// ResetPasswordHandler delegates the reset to the backend auth service and
// records an audit event on success only.
type ResetPasswordHandler struct {
	auth   AuthService
	audit  AuditSink
	logger Logger
}

func NewResetPasswordHandler(auth AuthService, audit AuditSink, logger Logger) *ResetPasswordHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &ResetPasswordHandler{
		auth:   auth,
		audit:  normalizeAuditSink(audit),
		logger: logger,
	}
}

func (h *ResetPasswordHandler) Execute(ctx context.Context, event ResetPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResetPasswordHandler) execute(ctx context.Context, event ResetPasswordMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset payload").
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := h.auth.ResetPasswordForEmail(ctx, event.Email); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to request password reset")
	}

	sink := normalizeAuditSink(h.audit)
	if err := sink.Record(ctx, AuditEvent{
		EventType:  AuditEventPasswordResetRequested,
		Actor:      ActorRef{Type: "user"},
		Email:      event.Email,
		OccurredAt: time.Now(),
	}); err != nil {
		h.logger.Warn("audit sink record error: %v", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(&ResetPasswordResponse{
			Email:   event.Email,
			Success: true,
		})
	}

	return nil
}
