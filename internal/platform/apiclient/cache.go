package apiclient

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Stale times per resource.
const (
	StaleUsers      = 5 * time.Minute
	StaleInsurance  = 5 * time.Minute
	StaleCards      = 5 * time.Minute
	StaleOrders     = 2 * time.Minute
	StaleOrderStats = 1 * time.Minute
)

// Key joins cache key parts with ":". The first part is the resource prefix
// used by Invalidate.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// QueryCache holds decoded API responses until they go stale or a mutation
// on their resource succeeds.
type QueryCache struct {
	store *cache.Cache

	mu    sync.Mutex
	epoch uint64
}

func NewQueryCache() *QueryCache {
	return &QueryCache{store: cache.New(5*time.Minute, 10*time.Minute)}
}

func (q *QueryCache) get(key string) (any, bool) {
	return q.store.Get(key)
}

func (q *QueryCache) currentEpoch() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.epoch
}

// setIfCurrent stores v unless an invalidation happened since the fetch
// began, in which case the response is stale and dropped.
func (q *QueryCache) setIfCurrent(key string, v any, ttl time.Duration, epoch uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.epoch != epoch {
		return false
	}
	q.store.Set(key, v, ttl)
	return true
}

// Invalidate drops every entry whose key is one of prefixes or starts with
// prefix + ":". It returns the number of entries removed.
func (q *QueryCache) Invalidate(prefixes ...string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.epoch++

	n := 0
	for key := range q.store.Items() {
		for _, p := range prefixes {
			if key == p || strings.HasPrefix(key, p+":") {
				q.store.Delete(key)
				n++
				break
			}
		}
	}
	metricsCacheInvalidated.Add(float64(n))
	return n
}

// Flush empties the cache.
func (q *QueryCache) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.epoch++
	q.store.Flush()
}

func (q *QueryCache) Len() int { return q.store.ItemCount() }

// Query returns the cached value for key or calls fetch and caches its
// result for staleTime.
func Query[T any](ctx context.Context, c *Client, key string, staleTime time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.cache.get(key); ok {
		if t, ok := v.(T); ok {
			metricsCacheHit.Inc()
			return t, nil
		}
	}
	metricsCacheMiss.Inc()

	epoch := c.cache.currentEpoch()
	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}
	if !c.cache.setIfCurrent(key, v, staleTime, epoch) {
		metricsCacheDiscarded.Inc()
	}
	return v, nil
}

// inflight tracks mutation keys with a pending request.
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{keys: make(map[string]struct{})}
}

func (f *inflight) acquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.keys[key]; busy {
		return false
	}
	f.keys[key] = struct{}{}
	return true
}

func (f *inflight) release(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
}

// Mutate runs fn unless a mutation with the same lock key is pending. Once
// fn succeeds the given cache prefixes are invalidated; a failed mutation
// leaves the cache untouched.
func (c *Client) Mutate(ctx context.Context, lockKey string, invalidate []string, fn func(context.Context) error) error {
	if !c.inflight.acquire(lockKey) {
		metricsMutationsRefused.Inc()
		return ErrMutationInFlight
	}
	defer c.inflight.release(lockKey)

	if err := fn(ctx); err != nil {
		return err
	}
	if len(invalidate) > 0 {
		c.cache.Invalidate(invalidate...)
	}
	return nil
}
