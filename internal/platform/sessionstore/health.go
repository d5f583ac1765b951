package sessionstore

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// HealthHandler reports whether the session backend is reachable. Stores
// without a remote backend are always healthy.
func HealthHandler(store Store, kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := store.(Pinger)
		if !ok {
			return c.JSON(http.StatusOK, map[string]interface{}{
				"status":        "healthy",
				"session_store": kind,
			})
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status":        "unhealthy",
				"session_store": kind,
				"error":         err.Error(),
			})
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":        "healthy",
			"session_store": kind,
		})
	}
}

// Purger is implemented by stores that need expired rows removed.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// StartJanitor purges expired sessions every interval until ctx is done. It
// is a no-op for stores that expire entries themselves.
func StartJanitor(ctx context.Context, store Store, interval time.Duration, logger zerolog.Logger) {
	p, ok := store.(Purger)
	if !ok || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := p.Purge(ctx)
				if err != nil {
					logger.Error().Err(err).Msg("purge expired sessions")
					continue
				}
				if n > 0 {
					logger.Info().Int64("purged", n).Msg("expired sessions removed")
				}
			}
		}
	}()
}
