package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSyncMetrics_Registro(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.IncItem("create-invoice", OutcomeSynced)
	m.IncItem("create-invoice", OutcomeSynced)
	m.IncItem("", OutcomeFailed)
	m.SetPending(3)
	m.ObserveDrain(50 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.items.WithLabelValues("create-invoice", OutcomeSynced)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.items.WithLabelValues("unknown", OutcomeFailed)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.pending))
}

func TestMetricasNilSafe(t *testing.T) {
	var s *SyncMetrics
	var r *ReconcileMetrics
	assert.NotPanics(t, func() {
		s.IncItem("x", OutcomeDead)
		s.SetPending(1)
		s.ObserveDrain(time.Second)
		r.Observe("sale", OutcomeCreated, time.Second)
		NewSyncMetrics(nil).IncItem("x", OutcomeSynced)
		NewReconcileMetrics(nil).Observe("sale", OutcomeCreated, time.Second)
	})
}

func TestReconcileMetrics_Registro(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReconcileMetrics(reg)
	m.Observe("sale", OutcomeReplayed, 10*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.total.WithLabelValues("sale", OutcomeReplayed)))
}
