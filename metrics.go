package contract

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics returns middleware that records request counts and latencies per
// declared endpoint, labelled by group, endpoint id, method, and status.
// Unmatched requests are recorded under endpoint "none".
func Metrics(reg prometheus.Registerer) Middleware {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contract_requests_total",
		Help: "Requests handled, by declared endpoint and status.",
	}, []string{"group", "endpoint", "method", "status"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "contract_request_duration_seconds",
		Help:    "Request latency, by declared endpoint.",
		Buckets: prometheus.DefBuckets,
	}, []string{"group", "endpoint", "method"})

	reg.MustRegister(requests, latency)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			r, holder := withRouteHolder(r)
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			group, endpoint := holder.group, holder.endpoint
			if endpoint == "" {
				group, endpoint = "none", "none"
			}

			requests.WithLabelValues(group, endpoint, r.Method, strconv.Itoa(sw.status)).Inc()
			latency.WithLabelValues(group, endpoint, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

// MetricsHandler returns the exposition handler to mount beside the API,
// typically at /metrics.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
