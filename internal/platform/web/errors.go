package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
	"github.com/healthcare/admin-dashboard/internal/platform/notify"
	"github.com/healthcare/admin-dashboard/internal/platform/session"
)

// StatusFor picks the response status for re-rendering a page after a
// failed API call.
func StatusFor(err error) int {
	if errors.Is(err, apiclient.ErrMutationInFlight) {
		return http.StatusConflict
	}
	switch apiclient.KindOf(err) {
	case apiclient.KindNotFound:
		return http.StatusNotFound
	case apiclient.KindForbidden:
		return http.StatusForbidden
	case apiclient.KindOther:
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) {
			return http.StatusUnprocessableEntity
		}
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// Fail queues a notification for err and redirects: to the login page when
// the session expired, to back otherwise.
func Fail(c echo.Context, err error, fallback, back string) error {
	notify.Failure(c, err, fallback)
	if apiclient.IsUnauthorized(err) {
		return ToLogin(c, back)
	}
	return c.Redirect(http.StatusSeeOther, back)
}

// ToLogin redirects to the login page, returning to back afterwards.
func ToLogin(c echo.Context, back string) error {
	u, err := url.Parse(back)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	return c.Redirect(http.StatusSeeOther, session.LoginURL(u))
}

type errorView struct {
	Status  int
	Message string
}

// ErrorHandler renders router-level failures (unknown routes, panics,
// oversized bodies) as HTML pages.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "Something went wrong"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok && status < 500 {
				message = m
			}
		}
		if status == http.StatusNotFound {
			message = "Page not found."
		}

		rid, _ := c.Get("request_id").(string)
		if status >= 500 {
			logger.Error().Err(err).Str("request_id", rid).Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			c.NoContent(status)
			return
		}
		if rerr := Render(c, status, "error", http.StatusText(status), errorView{Status: status, Message: message}); rerr != nil {
			logger.Error().Err(rerr).Str("request_id", rid).Msg("render error page")
			c.String(status, message)
		}
	}
}
