// Package metrics registers the process's Prometheus client_golang
// collectors: queue depth, investigation duration, and classification
// counts. Every collector is created via promauto against a private
// registry so tests can construct as many independent Metrics values as
// they like without colliding on the global default registry.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// Metrics holds every collector the investigation worker and ingest
// pipeline report to.
type Metrics struct {
	QueueDepth            prometheus.Gauge
	JobsProcessedTotal     *prometheus.CounterVec
	InvestigationDuration *prometheus.HistogramVec
	ClassificationTotal    *prometheus.CounterVec
	IngestReceivedTotal    *prometheus.CounterVec
	EvidenceErrorsTotal    *prometheus.CounterVec
}

// New registers every collector against reg and returns the bundle.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tarka",
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Number of jobs currently claimable or in-progress on the durable queue.",
		}),
		JobsProcessedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tarka",
			Subsystem: "worker",
			Name:      "jobs_processed_total",
			Help:      "Investigation jobs processed, by terminal disposition (ack, nak).",
		}, []string{"disposition"}),
		InvestigationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tarka",
			Subsystem: "pipeline",
			Name:      "investigation_duration_seconds",
			Help:      "Wall-clock time to run one investigation pipeline end to end, by alertname.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"alertname"}),
		ClassificationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tarka",
			Subsystem: "scoring",
			Name:      "classification_total",
			Help:      "Investigations scored, by terminal classification and family.",
		}, []string{"classification", "family"}),
		IngestReceivedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tarka",
			Subsystem: "ingest",
			Name:      "alerts_received_total",
			Help:      "Alertmanager webhook alerts received, by ingest-gate outcome.",
		}, []string{"outcome"}),
		EvidenceErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tarka",
			Subsystem: "pipeline",
			Name:      "evidence_errors_total",
			Help:      "Non-fatal evidence-collection errors recorded on an investigation, by stage.",
		}, []string{"stage"}),
	}
}

// ObserveInvestigation records one completed investigation's duration and
// terminal classification.
func (m *Metrics) ObserveInvestigation(inv *domain.Investigation, alertname string, seconds float64) {
	m.InvestigationDuration.WithLabelValues(alertname).Observe(seconds)
	m.ClassificationTotal.WithLabelValues(string(inv.Analysis.Verdict.Classification), inv.Meta.Family).Inc()
	for _, e := range inv.Errors {
		stage, _, ok := strings.Cut(e, ": ")
		if !ok {
			stage = e
		}
		m.EvidenceErrorsTotal.WithLabelValues(stage).Inc()
	}
}
