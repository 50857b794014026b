package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/onion"
)

// Metrics records request counts, latencies and in-flight requests as
// Prometheus metrics.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. It
// panics if a collector with the same name is already registered.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by method and status class.",
			},
			[]string{"method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		inflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Requests currently being handled.",
			},
		),
	}
	reg.MustRegister(m.requests, m.duration, m.inflight)
	return m
}

// Middleware observes every request passing through the rest of the chain.
func (m *Metrics) Middleware() onion.Middleware {
	return func(c *onion.Context, next onion.Next) error {
		m.inflight.Inc()
		defer m.inflight.Dec()

		start := time.Now()
		err := next()

		status := c.Status()
		if err != nil {
			status = onion.ErrorStatus(err)
		}
		method := c.Method()
		m.requests.WithLabelValues(method, statusClass(status)).Inc()
		m.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		return err
	}
}

// MetricsEndpoint serves the metrics of g at path and passes every other
// request on.
func MetricsEndpoint(path string, g prometheus.Gatherer) onion.Middleware {
	h := HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return func(c *onion.Context, next onion.Next) error {
		if c.Path() != path || (c.Method() != http.MethodGet && c.Method() != http.MethodHead) {
			return next()
		}
		return h(c, next)
	}
}

func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}
