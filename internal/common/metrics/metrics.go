// Package metrics provides Prometheus metrics for the designer service
package metrics

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains counters for designer operations and the live session gauge
type Metrics struct {
	registry *prometheus.Registry

	operationsTotal *prometheus.CounterVec
	renderDuration  *prometheus.HistogramVec
	activeSessions  prometheus.Gauge
	templatesSaved  prometheus.Counter
}

// New creates and registers designer metrics on the given registry
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		registry: registry,
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "designer_operations_total",
				Help: "Total number of designer operations",
			},
			[]string{"operation", "status"}, // operation: add_element, move, pointer_down; status: applied, noop, error
		),
		renderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "designer_render_duration_seconds",
				Help:    "Time taken to render canvas and preview SVG",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 10), // 0.5ms to ~256ms
			},
			[]string{"kind"}, // kind: canvas, preview
		),
		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "designer_active_sessions",
				Help: "Current number of open designer sessions",
			},
		),
		templatesSaved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "designer_templates_saved_total",
				Help: "Total number of templates saved to the library",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.operationsTotal, m.renderDuration, m.activeSessions, m.templatesSaved} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Operation records an operation outcome
func (m *Metrics) Operation(name string, applied bool) {
	status := "applied"
	if !applied {
		status = "noop"
	}
	m.operationsTotal.WithLabelValues(name, status).Inc()
}

// OperationError records a failed operation
func (m *Metrics) OperationError(name string) {
	m.operationsTotal.WithLabelValues(name, "error").Inc()
}

// ObserveRender records render time in seconds
func (m *Metrics) ObserveRender(kind string, seconds float64) {
	m.renderDuration.WithLabelValues(kind).Observe(seconds)
}

// SetSessions sets the live session count
func (m *Metrics) SetSessions(n int) {
	m.activeSessions.Set(float64(n))
}

func (m *Metrics) TemplateSaved() {
	m.templatesSaved.Inc()
}

// Handler exposes the registry in Prometheus text format for fiber
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
