// Package metrics owns the Prometheus collectors shared by the HTTP and
// Kafka layers. Every Metrics value has its own registry, so tests can build
// as many as they like.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"detailbook/pkg/customertype"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "detailbook"

const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusDLQ     = "dlq"
)

type Metrics struct {
	Registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	kafkaPublished *prometheus.CounterVec
	kafkaConsumed  *prometheus.CounterVec
	kafkaDuration  *prometheus.HistogramVec

	classifications *prometheus.CounterVec
	completion      prometheus.Histogram
}

func New(service string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"service": service}, reg))

	return &Metrics{
		Registry: reg,

		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status code.",
			},
			[]string{"method", "route", "code"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		kafkaPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "kafka_messages_published_total",
				Help:      "Kafka messages published by topic and outcome.",
			},
			[]string{"topic", "status"},
		),
		kafkaConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "kafka_messages_consumed_total",
				Help:      "Kafka messages handled by topic and outcome.",
			},
			[]string{"topic", "status"},
		),
		kafkaDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "kafka_message_duration_seconds",
				Help:      "Time spent handling a consumed Kafka message.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"topic"},
		),
		classifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "customer_classifications_total",
				Help:      "Customer type classifications served.",
			},
			[]string{"type"},
		),
		completion: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "profile_completion_percentage",
				Help:      "Completion percentage of profiles at write time.",
				Buckets:   []float64{0, 13, 25, 38, 50, 63, 75, 88, 100},
			},
		),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) IncPublished(topic, status string) {
	m.kafkaPublished.WithLabelValues(topic, status).Inc()
}

func (m *Metrics) ObserveConsumed(topic, status string, d time.Duration) {
	m.kafkaConsumed.WithLabelValues(topic, status).Inc()
	m.kafkaDuration.WithLabelValues(topic).Observe(d.Seconds())
}

func (m *Metrics) IncClassification(t customertype.Type) {
	m.classifications.WithLabelValues(t.String()).Inc()
}

func (m *Metrics) ObserveCompletion(percentage int) {
	m.completion.Observe(float64(percentage))
}
