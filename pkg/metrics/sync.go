package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resultados posibles de un item del outbox en una pasada de drenado.
const (
	OutcomeSynced   = "synced"
	OutcomeFailed   = "failed"
	OutcomeDead     = "dead"
	OutcomeDeferred = "deferred"
)

// SyncMetrics métricas del motor de sincronización del terminal POS.
type SyncMetrics struct {
	items   *prometheus.CounterVec
	drain   prometheus.Histogram
	pending prometheus.Gauge
}

// NewSyncMetrics registra las métricas en el registerer dado. reg nil = métricas deshabilitadas.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	items := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_sync_items_total",
		Help: "Outbox items processed by the sync engine, by kind and outcome.",
	}, []string{"kind", "outcome"})
	drain := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_sync_drain_duration_seconds",
		Help:    "Duration of sync engine drain passes.",
		Buckets: prometheus.DefBuckets,
	})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pos_sync_pending_items",
		Help: "Live outbox items awaiting confirmation.",
	})
	reg.MustRegister(items, drain, pending)
	return &SyncMetrics{items: items, drain: drain, pending: pending}
}

// IncItem cuenta un item procesado.
func (m *SyncMetrics) IncItem(kind, outcome string) {
	if m == nil || m.items == nil {
		return
	}
	m.items.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

// ObserveDrain registra la duración de una pasada.
func (m *SyncMetrics) ObserveDrain(d time.Duration) {
	if m == nil || m.drain == nil {
		return
	}
	m.drain.Observe(d.Seconds())
}

// SetPending actualiza el tamaño vivo del outbox.
func (m *SyncMetrics) SetPending(n int) {
	if m == nil || m.pending == nil {
		return
	}
	m.pending.Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
