// Package auth serves the login and logout screens.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
	"github.com/healthcare/admin-dashboard/internal/platform/notify"
	"github.com/healthcare/admin-dashboard/internal/platform/session"
	"github.com/healthcare/admin-dashboard/internal/platform/web"
)

type Handler struct {
	sessions *session.Manager
	logger   zerolog.Logger
}

func NewHandler(sessions *session.Manager, logger zerolog.Logger) *Handler {
	return &Handler{sessions: sessions, logger: logger}
}

// RegisterRoutes mounts the login form and logout action. throttle guards
// the credential post.
func (h *Handler) RegisterRoutes(e *echo.Echo, throttle echo.MiddlewareFunc) {
	e.GET(session.LoginPath, h.LoginForm)
	if throttle != nil {
		e.POST(session.LoginPath, h.Login, throttle)
	} else {
		e.POST(session.LoginPath, h.Login)
	}
	e.POST("/logout", h.Logout)
}

type loginView struct {
	Next  string
	Email string
	Error string
}

func (h *Handler) LoginForm(c echo.Context) error {
	next := session.SafeNext(c.QueryParam("next"))
	if session.FromContext(c.Request().Context()).Authenticated() {
		return c.Redirect(http.StatusSeeOther, next)
	}
	return web.Render(c, http.StatusOK, "login", "Login", loginView{Next: next})
}

func (h *Handler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")
	next := session.SafeNext(c.FormValue("next"))

	if email == "" || password == "" {
		return web.Render(c, http.StatusUnprocessableEntity, "login", "Login",
			loginView{Next: next, Email: email, Error: "Email and password are required"})
	}

	s := session.FromContext(ctx)
	if err := h.sessions.Login(ctx, s, email, password); err != nil {
		msg, status := loginFailure(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error().Err(err).Msg("login failed")
		}
		return web.Render(c, status, "login", "Login", loginView{Next: next, Email: email, Error: msg})
	}

	h.sessions.WriteCookie(c, s)
	notify.Success(c, "Login successful!")
	return c.Redirect(http.StatusSeeOther, next)
}

// loginFailure maps a failed login to the form message and status. A 401
// here means bad credentials, not an expired session.
func loginFailure(err error) (string, int) {
	if errors.Is(err, apiclient.ErrInvalidLoginResponse) {
		return apiclient.ErrInvalidLoginResponse.Error(), http.StatusBadGateway
	}
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case apiclient.KindUnauthorized:
			if apiErr.Message != "" {
				return apiErr.Message, http.StatusUnauthorized
			}
			return "Invalid email or password", http.StatusUnauthorized
		case apiclient.KindServer, apiclient.KindTransport:
			return apiErr.UserMessage(), http.StatusBadGateway
		}
		return apiErr.UserMessage(), http.StatusUnprocessableEntity
	}
	return "Login failed", http.StatusInternalServerError
}

func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	s := session.FromContext(ctx)
	if err := h.sessions.Logout(ctx, s); err != nil {
		h.logger.Warn().Err(err).Msg("logout")
	}
	h.sessions.WriteCookie(c, s)
	notify.Success(c, "Logged out successfully")
	return c.Redirect(http.StatusSeeOther, session.LoginPath)
}
