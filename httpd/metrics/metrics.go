// Package metrics exposes Timeship's Prometheus metrics: a request
// counter and latency histogram, plus the registry and /metrics handler
// that serve them.
//
// A small app-owned type wraps github.com/prometheus/client_golang's
// Registry and promhttp handler, registering only the two series
// Timeship needs rather than exposing the client_golang API directly.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smilyorg/timeship/apperr"
)

// Metrics owns the registry backing /metrics and the collectors every
// request is recorded against.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates a Metrics with its own registry, so that Timeship never
// pulls in the default global Prometheus registry (and whatever else a
// dependency may have registered against it).
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timeship",
			Name:      "http_requests_total",
			Help:      "Number of HTTP requests by route, method, and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "timeship",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	m.registry.MustRegister(m.requests, m.duration)

	return m
}

// Handler returns the http.Handler serving the Prometheus exposition
// format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records one observation per request into both collectors.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			method := c.Request().Method
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = apperr.KindOf(err).HTTPStatus()
				}
			}

			m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			m.duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
