package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the minimal identity derived from a Session. It is never mutated in
// place, only replaced when the Session changes.
type User struct {
	ID       string         `json:"id,omitempty"`
	Email    string         `json:"email,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// EnrollmentMetadata reports whether the user record carries an in-flight
// enrollment marker, which keeps the post-login redirect out of the way of
// the enrollment flow.
func (u *User) EnrollmentMetadata() bool {
	if u == nil || u.Metadata == nil {
		return false
	}
	for _, key := range []string{"application_id", "enrollment_step"} {
		if v, ok := u.Metadata[key]; ok && v != nil && v != "" {
			return true
		}
	}
	return false
}

// Session is the opaque token plus expiry metadata issued by the backend auth
// service. The Store owns it exclusively: replaced wholesale on sign-in,
// cleared on sign-out.
type Session struct {
	AccessToken string     `json:"access_token,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	User        *User      `json:"user,omitempty"`
}

// Expired reports whether the backend-issued expiry has passed.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.ExpiresAt == nil {
		return false
	}
	return now.After(*s.ExpiresAt)
}

// TODO: enable only in development!
func (s Session) String() string {
	expiresAt := "<nil>"
	if s.ExpiresAt != nil {
		expiresAt = s.ExpiresAt.Format(time.RFC1123)
	}
	userID := ""
	if s.User != nil {
		userID = s.User.ID
	}
	return fmt.Sprintf("user=%s exp=%s", userID, expiresAt)
}

// accessClaims mirrors the claims the backend embeds in its access tokens.
type accessClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// SessionFromAccessToken rebuilds a Session from a raw backend token. The
// claims are decoded without signature verification: validating tokens is the
// backend's job, we only need identity and expiry metadata on the client.
func SessionFromAccessToken(raw string) (*Session, error) {
	claims := &accessClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, err
	}

	sess := &Session{
		AccessToken: raw,
		User: &User{
			ID:       claims.Subject,
			Email:    claims.Email,
			Metadata: claims.UserMetadata,
		},
	}

	if claims.ExpiresAt != nil {
		expiresAt := claims.ExpiresAt.Time
		sess.ExpiresAt = &expiresAt
	}

	return sess, nil
}
