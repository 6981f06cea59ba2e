package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cosmos"

// Parse results, used as the result label of ParseFields.
const (
	ResultMatched = "matched"
	ResultSkipped = "skipped"
	ResultUnknown = "unknown"
)

// Snapshot outcomes, used as the result label of Snapshots.
const (
	SnapshotSaved        = "saved"
	SnapshotDeduplicated = "deduplicated"
	SnapshotFailed       = "failed"
)

// Metrics contains the daemon's collectors.
type Metrics struct {
	Entries             prometheus.Gauge
	ParseFields         *prometheus.CounterVec
	EquationEvaluations prometheus.Counter
	Heartbeats          prometheus.Counter
	HeartbeatBytes      prometheus.Histogram
	Snapshots           *prometheus.CounterVec
	MQTTConnected       prometheus.Gauge
	HTTPRequests        *prometheus.CounterVec
}

// NewMetrics creates the collectors without registering them.
func NewMetrics() *Metrics {
	return &Metrics{
		Entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "namespace",
			Name:      "entries",
			Help:      "Number of registered namespace entries, including aliases and equations",
		}),
		ParseFields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parse",
			Name:      "fields_total",
			Help:      "Wire text fields parsed, by result (matched, skipped, unknown)",
		}, []string{"result"}),
		EquationEvaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "equation",
			Name:      "evaluations_total",
			Help:      "Total number of equation evaluations",
		}),
		Heartbeats: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heartbeats_total",
			Help:      "Total number of heartbeats emitted",
		}),
		HeartbeatBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "heartbeat",
			Name:      "size_bytes",
			Help:      "Size of heartbeat wire text in bytes",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 6),
		}),
		Snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Snapshot attempts, by result (saved, deduplicated, failed)",
		}, []string{"result"}),
		MQTTConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mqtt",
			Name:      "connected",
			Help:      "MQTT connection status (0=disconnected, 1=connected)",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by method, route pattern and status code",
		}, []string{"method", "route", "code"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Entries, m.ParseFields, m.EquationEvaluations, m.Heartbeats,
		m.HeartbeatBytes, m.Snapshots, m.MQTTConnected, m.HTTPRequests,
	}
}

// RecordParse adds the counts of one parse.
func (m *Metrics) RecordParse(matched, skipped, unknown int) {
	m.ParseFields.WithLabelValues(ResultMatched).Add(float64(matched))
	m.ParseFields.WithLabelValues(ResultSkipped).Add(float64(skipped))
	m.ParseFields.WithLabelValues(ResultUnknown).Add(float64(unknown))
}

// RecordHeartbeat counts one heartbeat of size bytes.
func (m *Metrics) RecordHeartbeat(size int) {
	m.Heartbeats.Inc()
	m.HeartbeatBytes.Observe(float64(size))
}

// RecordSnapshot counts one snapshot attempt.
func (m *Metrics) RecordSnapshot(result string) {
	m.Snapshots.WithLabelValues(result).Inc()
}

// RecordMQTTStatus updates MQTT connection status.
func (m *Metrics) RecordMQTTStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	m.MQTTConnected.Set(value)
}

// Registry owns a private prometheus registry holding the daemon metrics
// plus the Go runtime and process collectors.
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
}

// NewRegistry creates a registry with every collector registered.
func NewRegistry() *Registry {
	r := &Registry{
		prometheusRegistry: prometheus.NewRegistry(),
		Metrics:            NewMetrics(),
	}
	r.prometheusRegistry.MustRegister(r.Metrics.collectors()...)
	r.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prometheusRegistry, promhttp.HandlerOpts{})
}
