package session

import (
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterSessionRoutes mounts the portal session endpoints on app.
func RegisterSessionRoutes[T any](app router.Router[T], opts ...SessionControllerOption) {
	controller := NewSessionController(opts...)

	app.
		Get(controller.Routes.Login, controller.LoginShow).
		SetName("sign-in.get")

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("sign-in.post")

	app.Post(controller.Routes.Logout, controller.LogOut).SetName("sign-out.post")

	app.Get(controller.Routes.PasswordReset, controller.PasswordResetShow).
		SetName("pwd-reset.get")
	app.Post(controller.Routes.PasswordReset, controller.PasswordResetPost).
		SetName("pwd-reset.post")
}

type SessionControllerRoutes struct {
	Login         string
	Logout        string
	PasswordReset string
}

type SessionControllerViews struct {
	Login         string
	PasswordReset string
}

type SessionController struct {
	Debug  bool
	Logger Logger
	Store  *Store
	Router *TransitionRouter
	Routes *SessionControllerRoutes
	Views  *SessionControllerViews
}

type SessionControllerOption func(*SessionController) *SessionController

// WithControllerStore wires the session store the controller operates on.
func WithControllerStore(store *Store) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		c.Store = store
		return c
	}
}

// WithControllerRouter wires the transition router used to compute
// redirects.
func WithControllerRouter(router *TransitionRouter) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		c.Router = router
		return c
	}
}

// WithControllerLogger overrides the logger.
func WithControllerLogger(logger Logger) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func NewSessionController(opts ...SessionControllerOption) *SessionController {
	c := &SessionController{
		Logger: defLogger{},
		Routes: &SessionControllerRoutes{
			Login:         "/login",
			Logout:        "/logout",
			PasswordReset: "/password-reset",
		},
		Views: &SessionControllerViews{
			Login:         "login",
			PasswordReset: "password_reset",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Store == nil {
		panic("Missing Store in session controller...")
	}

	if c.Router == nil {
		c.Router = NewTransitionRouter(nil)
	}

	return c
}

func (a *SessionController) LoginShow(ctx router.Context) error {
	return ctx.Render(a.Views.Login, router.ViewContext{
		"errors":  nil,
		"record":  nil,
		"blocked": ctx.Query("blocked"),
		"reason":  ctx.Query("reason"),
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *SessionController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login bind error: %v", err)
		return ctx.Render(a.Views.Login, router.ViewContext{
			"errors": map[string]string{"authentication": "Invalid request"},
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Login, router.ViewContext{
			"record":     payload,
			"validation": err.Error(),
		})
	}

	if a.Debug {
		a.Logger.Debug("login payload: %s", print.MaybePrettyJSON(payload))
	}

	sess, err := a.Store.SignIn(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		if IsAccountBanned(err) {
			support, _ := BanSupportContact(err)
			return ctx.Render(a.Views.Login, router.ViewContext{
				"errors":  map[string]string{"authentication": "Account unavailable"},
				"reason":  BanReason(err),
				"support": support,
			})
		}

		return ctx.Render(a.Views.Login, router.ViewContext{
			"errors": map[string]string{"authentication": "Authentication Error"},
			"record": payload,
		})
	}

	return ctx.Redirect(a.loginRedirect(ctx, sess), router.StatusSeeOther)
}

// loginRedirect computes the post-login destination. The page the user came
// from rides along as the "next" query parameter; pages that own their
// navigation (enrollment, magic-link entries) get the user sent back to them.
func (a *SessionController) loginRedirect(ctx router.Context, sess *Session) string {
	next := ctx.Query("next")

	path, query := "", url.Values{}
	if next != "" {
		if parsed, err := url.Parse(next); err == nil {
			path, query = parsed.Path, parsed.Query()
		}
	}

	dest, ok := a.Router.SignedInDestination(path, query, sess)
	if ok {
		return dest
	}

	if next != "" {
		return next
	}
	return DefaultLandingPath
}

func (a *SessionController) LogOut(ctx router.Context) error {
	if err := a.Store.SignOut(ctx.Context()); err != nil {
		a.Logger.Error("logout error: %v", err)
	}
	return ctx.Redirect(a.Router.SignedOutDestination(BlockingNone, ""), router.StatusSeeOther)
}

func (a *SessionController) PasswordResetShow(ctx router.Context) error {
	return ctx.Render(a.Views.PasswordReset, router.ViewContext{
		"errors": nil,
		"record": ResetPasswordMessage{},
	})
}

// PasswordResetPayload is the form payload
type PasswordResetPayload struct {
	Email string `form:"email" json:"email"`
}

func (a *SessionController) PasswordResetPost(ctx router.Context) error {
	payload := new(PasswordResetPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password reset bind error: %v", err)
		return ctx.Render(a.Views.PasswordReset, router.ViewContext{
			"errors": map[string]string{"email": "Invalid request"},
		})
	}

	if err := a.Store.ResetPassword(ctx.Context(), payload.Email); err != nil {
		a.Logger.Error("password reset error: %v", err)
		return ctx.Render(a.Views.PasswordReset, router.ViewContext{
			"errors": map[string]string{"email": "Unable to request a reset"},
			"record": payload,
		})
	}

	return ctx.Render(a.Views.PasswordReset, router.ViewContext{
		"sent":   true,
		"record": payload,
	})
}
