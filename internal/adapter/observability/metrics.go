package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ideaminer"

// HTTPRequestsTotal counts finished requests by route and status.
var HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Finished HTTP requests.",
}, []string{"method", "route", "status"})

// HTTPRequestDuration observes request latency by route.
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})

// RateLimitedTotal counts requests rejected by the submission rate limiter.
var RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected with 429 by the rate limiter.",
})

// ModelRepliesRejectedTotal counts model replies the validator threw out.
var ModelRepliesRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "model",
	Name:      "replies_rejected_total",
	Help:      "Model replies rejected by schema validation.",
})
