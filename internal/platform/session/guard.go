package session

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

// LoginPath is where signed-out admins are sent.
const LoginPath = "/login"

// publicPaths are reachable without signing in.
var publicPaths = map[string]bool{
	LoginPath: true,
	"/health":  true,
	"/metrics": true,
}

// IsPublicPath reports whether path bypasses the guard.
func IsPublicPath(path string) bool {
	return publicPaths[path] || strings.HasPrefix(path, "/static/")
}

// Skipper returns true for requests whose route bypasses the guard.
func Skipper(c echo.Context) bool {
	return IsPublicPath(c.Request().URL.Path)
}

// RequireAuth redirects signed-out requests to the login page, remembering
// where they were headed.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if Skipper(c) {
				return next(c)
			}
			if FromContext(c.Request().Context()).Authenticated() {
				return next(c)
			}
			return c.Redirect(http.StatusSeeOther, LoginURL(c.Request().URL))
		}
	}
}

// LoginURL builds /login?next=<path and query of u>.
func LoginURL(u *url.URL) string {
	next := u.RequestURI()
	if next == "" || next == "/" || strings.HasPrefix(next, LoginPath) {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// SafeNext returns next when it is a same-site relative path and "/"
// otherwise.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return "/"
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	if u.Path == LoginPath {
		return "/"
	}
	return next
}
