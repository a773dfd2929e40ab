package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resultados de la conciliación en el servidor.
const (
	OutcomeCreated  = "created"
	OutcomeReplayed = "replayed"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// ReconcileMetrics métricas del procedimiento de conciliación (facturas y pagos).
type ReconcileMetrics struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewReconcileMetrics registra las métricas; reg nil = deshabilitadas.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	if reg == nil {
		return &ReconcileMetrics{}
	}
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_reconcile_total",
		Help: "Reconciliation calls by document type and outcome.",
	}, []string{"type", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_reconcile_duration_seconds",
		Help:    "Duration of reconciliation transactions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
	reg.MustRegister(total, duration)
	return &ReconcileMetrics{total: total, duration: duration}
}

// Observe registra una llamada con su resultado y duración.
func (m *ReconcileMetrics) Observe(docType, outcome string, d time.Duration) {
	if m == nil || m.total == nil {
		return
	}
	m.total.WithLabelValues(normalizeLabel(docType), normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(normalizeLabel(docType)).Observe(d.Seconds())
}
