package session

import (
	"net/url"
	"strings"
)

// Default destinations for the post-login and post-logout transitions.
const (
	DefaultLandingPath = "/dashboard"
	DefaultSignInPath  = "/sign-in"
)

// defaultExcludedMarkers are path fragments whose pages own their navigation;
// a signed-in event on one of them must not yank the user elsewhere.
var defaultExcludedMarkers = []string{
	"enroll",
	"application",
	"sign-in",
	"login",
	"password-reset",
}

// magicLinkParams are query markers of a magic-link/enrollment entry, where
// the enrollment flow drives navigation itself.
var magicLinkParams = []string{"application_id", "magic_link"}

// TransitionRouter decides the navigation destination around sign-in and
// sign-out events and emits it through the Navigator port.
type TransitionRouter struct {
	nav      Navigator
	logger   Logger
	landing  string
	signIn   string
	excluded []string
}

// TransitionRouterOption customizes router construction.
type TransitionRouterOption func(*TransitionRouter)

// WithLandingPath overrides the default post-login destination.
func WithLandingPath(path string) TransitionRouterOption {
	return func(t *TransitionRouter) {
		if path != "" {
			t.landing = path
		}
	}
}

// WithSignInPath overrides the sign-in screen path.
func WithSignInPath(path string) TransitionRouterOption {
	return func(t *TransitionRouter) {
		if path != "" {
			t.signIn = path
		}
	}
}

// WithExcludedMarkers replaces the path fragments that suppress the
// post-login redirect.
func WithExcludedMarkers(markers ...string) TransitionRouterOption {
	return func(t *TransitionRouter) {
		if len(markers) > 0 {
			t.excluded = markers
		}
	}
}

// WithTransitionLogger overrides the logger.
func WithTransitionLogger(logger Logger) TransitionRouterOption {
	return func(t *TransitionRouter) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTransitionRouter builds a router emitting through nav.
func NewTransitionRouter(nav Navigator, opts ...TransitionRouterOption) *TransitionRouter {
	t := &TransitionRouter{
		nav:      nav,
		logger:   defLogger{},
		landing:  DefaultLandingPath,
		signIn:   DefaultSignInPath,
		excluded: defaultExcludedMarkers,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}

	return t
}

// SignedIn handles a successful sign-in observed at currentPath with the
// given query. When the path is excluded or the entry belongs to an
// enrollment flow, navigation is left to the current page.
func (t *TransitionRouter) SignedIn(currentPath string, query url.Values, sess *Session) {
	dest, ok := t.SignedInDestination(currentPath, query, sess)
	if !ok {
		return
	}
	t.navigate(dest)
}

// SignedInDestination computes the post-login destination. ok is false when
// navigation belongs to the current page.
func (t *TransitionRouter) SignedInDestination(currentPath string, query url.Values, sess *Session) (string, bool) {
	if t.shouldNotRedirect(currentPath) {
		t.logger.Debug("signed-in on excluded path %q, leaving navigation to the page", currentPath)
		return "", false
	}

	if t.isEnrollmentFlow(query, sess) {
		t.logger.Debug("signed-in during enrollment flow, leaving navigation to the page")
		return "", false
	}

	return t.landing, true
}

// SignedOut always navigates to the sign-in screen; unlike sign-in there are
// no exclusions. A hard block rides along as query parameters so the sign-in
// screen can explain the forced logout.
func (t *TransitionRouter) SignedOut(blocked BlockingType, reason string) {
	t.navigate(t.SignedOutDestination(blocked, reason))
}

// SignedOutDestination computes the post-logout destination, including the
// blocked/reason query parameters for hard blocks.
func (t *TransitionRouter) SignedOutDestination(blocked BlockingType, reason string) string {
	dest := t.signIn

	if blocked.Hard() {
		params := url.Values{}
		params.Set("blocked", string(blocked))
		if reason != "" {
			params.Set("reason", reason)
		}
		dest += "?" + params.Encode()
	}

	return dest
}

func (t *TransitionRouter) shouldNotRedirect(path string) bool {
	path = strings.ToLower(path)
	for _, marker := range t.excluded {
		if strings.Contains(path, marker) {
			return true
		}
	}
	return false
}

func (t *TransitionRouter) isEnrollmentFlow(query url.Values, sess *Session) bool {
	for _, param := range magicLinkParams {
		if query.Get(param) != "" {
			return true
		}
	}
	if query.Get("type") == "magiclink" {
		return true
	}

	if sess != nil && sess.User.EnrollmentMetadata() {
		return true
	}

	return false
}

func (t *TransitionRouter) navigate(dest string) {
	if t.nav == nil {
		t.logger.Debug("no navigator configured, dropping navigation to %s", dest)
		return
	}
	t.nav.Go(dest)
}
