package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
	"github.com/healthcare/admin-dashboard/internal/platform/sessionstore"
)

// CookieName carries the session id.
const CookieName = "admin_session"

const DefaultTTL = 24 * time.Hour

var ErrNotAuthenticated = errors.New("not authenticated")

// Authenticator exchanges admin credentials for an API token.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
}

type Options struct {
	TTL          time.Duration
	CookieSecure bool
}

// Manager loads sessions from the store and performs the login and logout
// transitions.
type Manager struct {
	store  sessionstore.Store
	auth   Authenticator
	ttl    time.Duration
	secure bool
	logger zerolog.Logger
	now    func() time.Time
}

func NewManager(store sessionstore.Store, auth Authenticator, opts Options, logger zerolog.Logger) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &Manager{
		store:  store,
		auth:   auth,
		ttl:    opts.TTL,
		secure: opts.CookieSecure,
		logger: logger.With().Str("component", "session").Logger(),
		now:    time.Now,
	}
}

// Load resolves the session named by the request cookie. Unknown ids and
// tokens past their exp claim yield a signed-out session.
func (m *Manager) Load(ctx context.Context, r *http.Request) *Session {
	s := &Session{store: m.store}
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return s
	}
	s.id = cookie.Value

	token, err := m.store.Get(ctx, cookie.Value)
	if err != nil {
		if !errors.Is(err, sessionstore.ErrNotFound) {
			m.logger.Error().Err(err).Msg("load session")
		}
		return s
	}

	if tokenExpired(token, m.now()) {
		if err := m.store.Delete(ctx, cookie.Value); err != nil {
			m.logger.Error().Err(err).Msg("delete expired session")
		}
		return s
	}
	s.token = token
	return s
}

// Login authenticates against the API and, on success, stores the token
// under a fresh session id. On failure the session stays signed out.
func (m *Manager) Login(ctx context.Context, s *Session, email, password string) error {
	token, err := m.auth.Authenticate(ctx, email, password)
	if err != nil {
		return err
	}
	if token == "" {
		return apiclient.ErrInvalidLoginResponse
	}

	id := uuid.NewString()
	if err := m.store.Set(ctx, id, token, m.ttl); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if old := s.ID(); old != "" {
		if err := m.store.Delete(ctx, old); err != nil {
			m.logger.Warn().Err(err).Msg("delete previous session")
		}
	}
	s.store = m.store
	s.set(id, token)
	return nil
}

// Logout clears the token and forgets the session id.
func (m *Manager) Logout(ctx context.Context, s *Session) error {
	id := s.ID()
	s.set("", "")
	if id == "" {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// WriteCookie sets or clears the session cookie to match s.
func (m *Manager) WriteCookie(c echo.Context, s *Session) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    s.ID(),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl.Seconds()),
	}
	if !s.Authenticated() {
		cookie.Value = ""
		cookie.MaxAge = -1
	}
	c.SetCookie(cookie)
}

// Middleware loads the session for every request and makes it available to
// handlers and to the API client through the request context.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			s := m.Load(req.Context(), req)
			ctx := WithSession(req.Context(), s)
			ctx = apiclient.WithCredentials(ctx, s)
			c.SetRequest(req.WithContext(ctx))
			c.Set("session_state", s.State().String())
			return next(c)
		}
	}
}
