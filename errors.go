package session

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidCredentials = "INVALID_CREDENTIALS"
	textCodeAccountBanned      = "ACCOUNT_BANNED"
	textCodeNoActiveSession    = "NO_ACTIVE_SESSION"
	textCodeStatusCheckFailed  = "STATUS_CHECK_FAILED"
)

// ErrInvalidCredentials is returned when the backend rejects a credential
// pair. It is surfaced to the sign-in form, never thrown past it.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoActiveSession is returned when an operation requires a signed-in user.
var ErrNoActiveSession = goerrors.New("no active session", goerrors.CategoryAuth).
	WithTextCode(textCodeNoActiveSession).
	WithCode(goerrors.CodeUnauthorized)

// NewAccountBannedError builds the structured error returned when a login
// succeeds against the backend but the account is administratively banned.
// The reason and support contact ride along for user-facing messaging.
func NewAccountBannedError(reason string, support SupportContact) *goerrors.Error {
	return goerrors.New("account is banned", goerrors.CategoryAuth).
		WithTextCode(textCodeAccountBanned).
		WithCode(goerrors.CodeUnauthorized).
		WithMetadata(map[string]any{
			"reason":  reason,
			"support": support,
		})
}

// IsAccountBanned reports whether err is the banned-account login failure.
func IsAccountBanned(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCodeAccountBanned
}

// IsAuthFailure reports whether err belongs to the credential-failure family
// the sign-in form renders inline.
func IsAuthFailure(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryAuth
}

// BanReason extracts the administrative reason from a banned-account error.
func BanReason(err error) string {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return ""
	}
	if reason, ok := richErr.Metadata["reason"].(string); ok {
		return reason
	}
	return ""
}

// BanSupportContact extracts the support contact from a banned-account error.
func BanSupportContact(err error) (SupportContact, bool) {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return SupportContact{}, false
	}
	contact, ok := richErr.Metadata["support"].(SupportContact)
	return contact, ok
}
