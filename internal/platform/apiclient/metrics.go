package apiclient

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_api_requests_total",
		Help: "Remote API calls by method, route and status",
	}, []string{"method", "route", "status"})

	metricsLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "admin_api_request_duration_seconds",
		Help:    "Remote API call latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	metricsCacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_api_cache_events",
		Help: "Query cache event counters",
	}, []string{"event"})

	metricsCacheHit         = metricsCacheEvents.WithLabelValues("hit")
	metricsCacheMiss        = metricsCacheEvents.WithLabelValues("miss")
	metricsCacheInvalidated = metricsCacheEvents.WithLabelValues("invalidated")
	metricsCacheDiscarded   = metricsCacheEvents.WithLabelValues("discarded")

	metricsMutationsRefused = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_api_mutations_refused_total",
		Help: "Mutations refused because one for the same item was in flight",
	})
)

func observe(method, route string, status int, started time.Time) {
	s := "error"
	if status > 0 {
		s = strconv.Itoa(status)
	}
	metricsRequests.WithLabelValues(method, route, s).Inc()
	metricsLatency.WithLabelValues(method, route).Observe(time.Since(started).Seconds())
}

// routeOf collapses resource ids so metric and span names stay bounded:
// "/orders/42/notes" becomes "/orders/:id/notes".
func routeOf(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) > 1 {
		switch segs[1] {
		case "stats", "login":
		default:
			segs[1] = ":id"
		}
	}
	return "/" + strings.Join(segs, "/")
}
