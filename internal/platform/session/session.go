// Package session holds the signed-in admin's API token on the server and
// guards the dashboard routes.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/healthcare/admin-dashboard/internal/platform/sessionstore"
)

// State is the authentication state of a session.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Session is one browser's login. The token is written only by Login,
// Logout and Expire; every API call reads it.
type Session struct {
	store sessionstore.Store

	mu    sync.RWMutex
	id    string
	token string
}

func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Token returns the API bearer token, empty when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) State() State {
	if s.Token() == "" {
		return Unauthenticated
	}
	return Authenticated
}

func (s *Session) Authenticated() bool { return s.State() == Authenticated }

// Expire clears the token after the API rejected it.
func (s *Session) Expire(ctx context.Context) error {
	s.mu.Lock()
	id := s.id
	had := s.token != ""
	s.token = ""
	s.mu.Unlock()

	if !had || id == "" || s.store == nil {
		return nil
	}
	return s.store.Delete(ctx, id)
}

func (s *Session) set(id, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.token = token
}

type sessionKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session for the request. It never returns nil;
// a request without a session is treated as signed out.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey{}).(*Session); ok && s != nil {
		return s
	}
	return &Session{}
}

// tokenExpired reads the exp claim without verifying the signature. The API
// is the authority on validity; this only avoids sending a token that is
// certain to be rejected. Tokens that are not JWTs never expire here.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
