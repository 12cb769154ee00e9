package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/sla-ticket-service/internal/sla"
)

const namespace = "sla_ticket"

// Metrics holds the Prometheus collectors for the HTTP surface and the SLA
// engine. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	reqCounter   *prometheus.CounterVec
	reqLatency   *prometheus.HistogramVec
	errorCounter *prometheus.CounterVec
	slaStatus    *prometheus.CounterVec
}

// NewMetrics builds collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reqCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		reqLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		errorCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_errors_total",
				Help:      "HTTP errors by domain error code",
			},
			[]string{"route", "method", "code"},
		),
		slaStatus: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sla_evaluations_total",
				Help:      "SLA evaluations by derived status",
			},
			[]string{"status"},
		),
	}
	m.registry.MustRegister(
		m.reqCounter, m.reqLatency, m.errorCounter, m.slaStatus,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, st := range sla.Statuses {
		m.slaStatus.WithLabelValues(string(st))
	}
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.reqCounter.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.reqLatency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errorCounter.WithLabelValues(route, method, code).Inc()
}

// ObserveSLAStatus counts one derived SLA status.
func (m *Metrics) ObserveSLAStatus(status sla.Status) {
	if m == nil {
		return
	}
	m.slaStatus.WithLabelValues(string(status)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
