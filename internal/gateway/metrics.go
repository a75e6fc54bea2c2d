package gateway

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks bot-level counters. Counters are exported in Prometheus
// format on /metrics and mirrored in atomics so /status can report a JSON
// snapshot without scraping.
type Metrics struct {
	registry *prometheus.Registry

	messagesTotal    prometheus.Counter
	validationsTotal prometheus.Counter
	errorsTotal      prometheus.Counter
	webhooksTotal    *prometheus.CounterVec

	messages    atomic.Int64
	validations atomic.Int64
	errors      atomic.Int64
	webhooks    atomic.Int64
}

// NewMetrics creates a Metrics with its own Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailvet_messages_total",
			Help: "Inbound chat messages processed.",
		}),
		validationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailvet_validations_total",
			Help: "Email addresses sent to the validation provider.",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailvet_errors_total",
			Help: "Processing errors reported to users.",
		}),
		webhooksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailvet_webhooks_total",
			Help: "Webhook deliveries by source and outcome.",
		}, []string{"source", "outcome"}),
	}
	m.registry.MustRegister(
		m.messagesTotal,
		m.validationsTotal,
		m.errorsTotal,
		m.webhooksTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordMessage records an inbound chat message.
func (m *Metrics) RecordMessage() {
	m.messagesTotal.Inc()
	m.messages.Add(1)
}

// RecordValidations records n emails submitted to the provider.
func (m *Metrics) RecordValidations(n int) {
	m.validationsTotal.Add(float64(n))
	m.validations.Add(int64(n))
}

// RecordError records a processing error.
func (m *Metrics) RecordError() {
	m.errorsTotal.Inc()
	m.errors.Add(1)
}

// RecordWebhook records a webhook delivery and its outcome.
func (m *Metrics) RecordWebhook(source, outcome string) {
	m.webhooksTotal.WithLabelValues(source, outcome).Inc()
	m.webhooks.Add(1)
}

// Snapshot returns a consistent point-in-time view of the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Messages:    m.messages.Load(),
		Validations: m.validations.Load(),
		Errors:      m.errors.Load(),
		Webhooks:    m.webhooks.Load(),
	}
}

// MetricsSnapshot is a serializable point-in-time metrics view.
type MetricsSnapshot struct {
	Messages    int64 `json:"messages"`
	Validations int64 `json:"validations"`
	Errors      int64 `json:"errors"`
	Webhooks    int64 `json:"webhooks"`
}
