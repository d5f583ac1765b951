package sessionstore

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Memory keeps sessions in process. Sessions are lost on restart.
type Memory struct {
	c *cache.Cache
}

func NewMemory() *Memory {
	return &Memory{c: cache.New(cache.NoExpiration, 10*time.Minute)}
}

func (m *Memory) Get(_ context.Context, id string) (string, error) {
	v, ok := m.c.Get(id)
	if !ok {
		return "", ErrNotFound
	}
	return v.(string), nil
}

func (m *Memory) Set(_ context.Context, id, token string, ttl time.Duration) error {
	m.c.Set(id, token, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.c.Delete(id)
	return nil
}

func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}
