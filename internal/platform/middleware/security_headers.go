package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// ContentSecurityPolicy allows the dashboard's own stylesheet and forms,
// plus logo and prescription images served over https or inlined as data
// URLs for upload previews.
const ContentSecurityPolicy = "default-src 'self'; img-src 'self' data: https:; style-src 'self'; " +
	"script-src 'self' 'unsafe-inline'; form-action 'self'; frame-ancestors 'none'; base-uri 'self'"

// SecurityHeaders sets the browser hardening headers on every response.
// Pages carry the admin's data, so only static assets may be cached.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-XSS-Protection", "0")
			h.Set("Content-Security-Policy", ContentSecurityPolicy)
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			h.Set("Referrer-Policy", "same-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			if !strings.HasPrefix(c.Request().URL.Path, "/static/") {
				h.Set("Cache-Control", "no-store")
			}

			return next(c)
		}
	}
}
