// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation: generic HTTP traffic metrics
// plus a handful of moderation counters fed by the handlers. Label sets are
// kept small to bound cardinality:
//
//   - method: HTTP method verb (GET/POST/…)
//   - path:   the registered Gin route (e.g. /api/v1/stores/:id); falls back
//     to the raw URL path when no route matched
//   - status: numeric status code as a string (e.g. "200", "429")
//
// All collectors are safe for concurrent use.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpReqs counts requests by method, route path, and status code.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpLat records request duration in seconds by method and route path.
	// Status is omitted to keep histogram cardinality lower.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// httpInflight gauges the number of in-flight requests.
	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// VotesRecorded counts durably recorded votes by vote type.
	VotesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_votes_recorded_total",
			Help: "Total number of votes recorded, by vote type.",
		},
		[]string{"type"},
	)

	// SubmissionsAccepted counts accepted submissions by submission type.
	SubmissionsAccepted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_submissions_accepted_total",
			Help: "Total number of accepted submissions, by type.",
		},
		[]string{"type"},
	)

	// AbuseDenials counts denied moderation actions by gate. The "gate"
	// label is one of: honeypot, time_trap, captcha, rate_limit,
	// flag_cooldown, duplicate.
	AbuseDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_abuse_denials_total",
			Help: "Total number of denied moderation actions, by gate.",
		},
		[]string{"gate"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight,
		VotesRecorded, SubmissionsAccepted, AbuseDenials)
}

// Metrics returns a Gin middleware that instruments requests with Prometheus.
//
// Usage:
//
//	r := gin.New()
//	r.Use(middleware.Metrics())
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		dur := time.Since(start).Seconds()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpReqs.WithLabelValues(method, path, status).Inc()
		httpLat.WithLabelValues(method, path).Observe(dur)
	}
}
