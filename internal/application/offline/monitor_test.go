package offline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

type switchProber struct{ up atomic.Bool }

func (p *switchProber) Ping(context.Context) error {
	if p.up.Load() {
		return nil
	}
	return errors.New("sin red")
}

func runMonitor(t *testing.T, m *Monitor) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = m.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestMonitor_ReconexionDrena(t *testing.T) {
	ctx := context.Background()
	tm := newTerminal(t, entity.RoleAdmin)
	_, err := tm.pos.CreateProduct(ctx, dto.CreateProductRequest{Name: "A"})
	require.NoError(t, err)

	prober := &switchProber{}
	m := NewMonitor(tm.engine, tm.outbox, prober, MonitorConfig{SyncInterval: time.Hour, ProbeInterval: time.Hour}, nil)
	var last atomic.Value
	m.Subscribe(func(s Status) { last.Store(s) })
	runMonitor(t, m)

	assert.Equal(t, Status{PendingCount: 1}, m.Status())
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, tm.remote.calledTimes(KindProduct), "offline no intenta enviar")

	prober.up.Store(true)
	m.SetOnline(true)

	require.Eventually(t, func() bool { return tm.outbox.Len() == 0 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		s, ok := last.Load().(Status)
		return ok && s.IsOnline && !s.IsSyncing && s.PendingCount == 0
	}, time.Second, 5*time.Millisecond)
}

func TestMonitor_SyncNowConsultaAntesDeDrenar(t *testing.T) {
	ctx := context.Background()
	tm := newTerminal(t, entity.RoleAdmin)
	prober := &switchProber{}
	m := NewMonitor(tm.engine, tm.outbox, prober, MonitorConfig{SyncInterval: time.Hour, ProbeInterval: time.Hour}, nil)
	runMonitor(t, m)

	_, err := tm.pos.CreateProduct(ctx, dto.CreateProductRequest{Name: "A"})
	require.NoError(t, err)
	m.SyncNow()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, tm.outbox.Len(), "sin servidor no hay pasada")

	prober.up.Store(true)
	m.SyncNow()
	require.Eventually(t, func() bool { return tm.outbox.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestMonitor_SyncIntervalMientrasOnline(t *testing.T) {
	ctx := context.Background()
	tm := newTerminal(t, entity.RoleAdmin)
	prober := &switchProber{}
	prober.up.Store(true)
	m := NewMonitor(tm.engine, tm.outbox, prober, MonitorConfig{SyncInterval: 10 * time.Millisecond, ProbeInterval: time.Hour}, nil)
	runMonitor(t, m)
	require.Eventually(t, func() bool { return m.Status().IsOnline }, time.Second, 5*time.Millisecond)

	_, err := tm.pos.CreateProduct(ctx, dto.CreateProductRequest{Name: "Tardío"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return tm.outbox.Len() == 0 }, time.Second, 5*time.Millisecond)
}
