package httpx

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

func (r *Router) initMetrics() {
	r.metricsOnce.Do(func() {
		r.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskloop",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Processed HTTP requests by method, route and status",
		}, []string{"method", "route", "status"})
		r.requestTotal = registerOrReuse(r.requestTotal).(*prometheus.CounterVec)

		r.requestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "taskloop",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "Handler latency distribution",
			Buckets:   latencyBuckets,
		}, []string{"method", "route", "status"})
		r.requestLatency = registerOrReuse(r.requestLatency).(*prometheus.HistogramVec)

		r.requestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "taskloop",
			Subsystem: "api",
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being handled",
		})
		r.requestsInFlight = registerOrReuse(r.requestsInFlight).(prometheus.Gauge)

		r.rateLimitHits = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskloop",
			Subsystem: "api",
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter",
		}, []string{"route", "key"})
		r.rateLimitHits = registerOrReuse(r.rateLimitHits).(*prometheus.CounterVec)

		r.metricsInitialized = true
	})
}

// registerOrReuse registers the collector, falling back to an already
// registered duplicate. Routers are rebuilt in tests, so double
// registration must not panic.
func registerOrReuse(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
	}
	return c
}

func (r *Router) recordRequestMetrics(method, route string, status int, duration time.Duration) {
	if !r.metricsInitialized {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	r.requestTotal.With(labels).Inc()
	r.requestLatency.With(labels).Observe(duration.Seconds())
}

func (r *Router) trackInFlight() func() {
	if !r.metricsInitialized {
		return func() {}
	}
	r.requestsInFlight.Inc()
	return r.requestsInFlight.Dec
}

func (r *Router) recordRateLimitHit(route, key string) {
	if !r.metricsInitialized {
		return
	}
	r.rateLimitHits.With(prometheus.Labels{"route": route, "key": key}).Inc()
}
