// Package metrics holds the Prometheus collectors shared by the content
// client, the cache and the HTTP server.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "spacetraveling"

var (
	RepositoryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "repository_requests_total",
		Help:      "Requests sent to the content repository, by operation and outcome.",
	}, []string{"op", "outcome"})

	RepositoryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "repository_request_duration_seconds",
		Help:      "Latency of content repository requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Query cache lookups, by result (hit, miss, error).",
	}, []string{"result"})

	SkippedDocuments = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "malformed_documents_total",
		Help:      "Documents skipped because a required field was missing.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by route and status.",
	}, []string{"route", "status"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Latency of HTTP requests, by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)

// ObserveRepository records one repository call.
func ObserveRepository(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	RepositoryRequests.WithLabelValues(op, outcome).Inc()
	RepositoryLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
