// Package sessionstore persists admin API tokens keyed by session id.
package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Store keeps one token per session id until its ttl elapses.
type Store interface {
	Get(ctx context.Context, id string) (string, error)
	Set(ctx context.Context, id, token string, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

const (
	KindMemory   = "memory"
	KindRedis    = "redis"
	KindPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Kind        string
	RedisURL    string
	DatabaseURL string
	MaxConns    int32
	MinConns    int32
}

// Open connects the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Kind {
	case "", KindMemory:
		return NewMemory(), nil
	case KindRedis:
		return NewRedis(ctx, opts.RedisURL)
	case KindPostgres:
		pool, err := NewPool(ctx, opts.DatabaseURL, opts.MaxConns, opts.MinConns)
		if err != nil {
			return nil, err
		}
		s := NewPostgres(pool)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", opts.Kind)
	}
}
