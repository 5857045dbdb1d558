package session_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestSessionFromAccessToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signToken(t, jwt.MapClaims{
		"sub":   "user-1",
		"email": "pepe.rone@example.com",
		"exp":   exp.Unix(),
		"user_metadata": map[string]any{
			"application_id": "app-9",
		},
	})

	sess, err := session.SessionFromAccessToken(raw)
	require.NoError(t, err)

	assert.Equal(t, raw, sess.AccessToken)
	require.NotNil(t, sess.User)
	assert.Equal(t, "user-1", sess.User.ID)
	assert.Equal(t, "pepe.rone@example.com", sess.User.Email)
	assert.True(t, sess.User.EnrollmentMetadata())

	require.NotNil(t, sess.ExpiresAt)
	assert.True(t, sess.ExpiresAt.Equal(exp))
}

func TestSessionFromAccessTokenRejectsGarbage(t *testing.T) {
	_, err := session.SessionFromAccessToken("not-a-token")
	assert.Error(t, err)
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()

	var nilSession *session.Session
	assert.False(t, nilSession.Expired(now))
	assert.False(t, (&session.Session{}).Expired(now), "no expiry means not expired")

	past := now.Add(-time.Minute)
	assert.True(t, (&session.Session{ExpiresAt: &past}).Expired(now))

	future := now.Add(time.Minute)
	assert.False(t, (&session.Session{ExpiresAt: &future}).Expired(now))
}

func TestUserEnrollmentMetadata(t *testing.T) {
	var nilUser *session.User
	assert.False(t, nilUser.EnrollmentMetadata())

	assert.False(t, (&session.User{}).EnrollmentMetadata())

	u := &session.User{Metadata: map[string]any{"application_id": ""}}
	assert.False(t, u.EnrollmentMetadata(), "empty markers do not count")

	u = &session.User{Metadata: map[string]any{"enrollment_step": "documents"}}
	assert.True(t, u.EnrollmentMetadata())
}
