// Package metrics exposes Prometheus instruments for the HTTP API and a few
// domain events.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "waver"

type Metrics struct {
	RequestCounter     *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	RequestsInFlight   prometheus.Gauge
	ReportsCreated     *prometheus.CounterVec
	ReportsRejected    *prometheus.CounterVec
	FriendTransitions  *prometheus.CounterVec
	SwallowedReadFails *prometheus.CounterVec
}

// New registers instruments on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		ReportsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reports",
				Name:      "created_total",
				Help:      "Surf reports created, by visibility",
			},
			[]string{"visibility"},
		),
		ReportsRejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reports",
				Name:      "rejected_total",
				Help:      "Surf reports refused, by reason",
			},
			[]string{"reason"},
		),
		FriendTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "friends",
				Name:      "transitions_total",
				Help:      "Friendship state changes, by action",
			},
			[]string{"action"},
		),
		SwallowedReadFails: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reads",
				Name:      "defaulted_total",
				Help:      "Read failures answered with a safe default",
			},
			[]string{"operation"},
		),
	}
}

// Middleware records count, latency and in-flight requests per matched route.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		route := c.Route().Path
		method := c.Method()
		m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		m.RequestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		return err
	}
}

// Nil-safe helpers so services can run without metrics in tests.

func (m *Metrics) ReportCreated(visibility string) {
	if m != nil {
		m.ReportsCreated.WithLabelValues(visibility).Inc()
	}
}

func (m *Metrics) ReportRejected(reason string) {
	if m != nil {
		m.ReportsRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) FriendTransition(action string) {
	if m != nil {
		m.FriendTransitions.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) ReadDefaulted(operation string) {
	if m != nil {
		m.SwallowedReadFails.WithLabelValues(operation).Inc()
	}
}
