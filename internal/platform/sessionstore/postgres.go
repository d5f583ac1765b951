package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens and pings a pgx connection pool.
func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required for the postgres session store")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns > 0 {
		cfg.MinConns = minConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// querier is the subset of pgxpool.Pool used by Postgres.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Postgres stores sessions in the admin_sessions table.
type Postgres struct {
	db    querier
	close func()
	now   func() time.Time
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{db: pool, close: pool.Close, now: time.Now}
}

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS admin_sessions (
	id         TEXT PRIMARY KEY,
	token      TEXT NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
)`

// Migrate creates the sessions table if needed.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, createSessionsTable); err != nil {
		return fmt.Errorf("create admin_sessions: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (string, error) {
	var token string
	err := p.db.QueryRow(ctx,
		`SELECT token FROM admin_sessions WHERE id = $1 AND expires_at > $2`,
		id, p.now()).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select session: %w", err)
	}
	return token, nil
}

func (p *Postgres) Set(ctx context.Context, id, token string, ttl time.Duration) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO admin_sessions (id, token, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at`,
		id, token, p.now().Add(ttl))
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	if _, err := p.db.Exec(ctx, `DELETE FROM admin_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Purge removes expired rows and reports how many were deleted.
func (p *Postgres) Purge(ctx context.Context) (int64, error) {
	tag, err := p.db.Exec(ctx, `DELETE FROM admin_sessions WHERE expires_at <= $1`, p.now())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func (p *Postgres) Close() error {
	if p.close != nil {
		p.close()
	}
	return nil
}
