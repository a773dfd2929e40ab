package offline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/pos-sync/pkg/logger"
)

// Intervalos por defecto del monitor.
const (
	DefaultSyncInterval  = 30 * time.Second
	DefaultProbeInterval = 10 * time.Second
)

// Status estado de conectividad que muestra la UI.
type Status struct {
	IsOnline     bool
	IsSyncing    bool
	PendingCount int
}

// MonitorConfig intervalos del monitor.
type MonitorConfig struct {
	SyncInterval  time.Duration
	ProbeInterval time.Duration
}

// Monitor observa la conectividad y dispara pasadas del Engine: al pasar a online, cada
// SyncInterval mientras está online y a pedido (SyncNow).
type Monitor struct {
	engine *Engine
	outbox *Outbox
	prober Prober
	cfg    MonitorConfig
	log    *logger.Logger

	online  atomic.Bool
	syncing atomic.Bool
	trigger chan struct{}
	events  chan bool

	subMu  sync.Mutex
	subSeq int
	subs   map[int]func(Status)
}

// NewMonitor construye el monitor. prober puede ser nil si la conectividad solo llega por SetOnline.
func NewMonitor(engine *Engine, outbox *Outbox, prober Prober, cfg MonitorConfig, log *logger.Logger) *Monitor {
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = DefaultSyncInterval
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = DefaultProbeInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	m := &Monitor{
		engine:  engine,
		outbox:  outbox,
		prober:  prober,
		cfg:     cfg,
		log:     log.Component("monitor"),
		trigger: make(chan struct{}, 1),
		events:  make(chan bool, 16),
		subs:    make(map[int]func(Status)),
	}
	outbox.Subscribe(func(int) { m.publish() })
	return m
}

// Run bloquea hasta que ctx se cancele.
func (m *Monitor) Run(ctx context.Context) error {
	probeTick := time.NewTicker(m.cfg.ProbeInterval)
	defer probeTick.Stop()
	syncTick := time.NewTicker(m.cfg.SyncInterval)
	defer syncTick.Stop()

	m.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-probeTick.C:
			m.probe(ctx)
		case <-syncTick.C:
			if m.online.Load() {
				m.drain(ctx)
			}
		case <-m.trigger:
			m.probe(ctx)
			if m.online.Load() {
				m.drain(ctx)
			}
		case online := <-m.events:
			m.transition(ctx, online)
		}
	}
}

// SetOnline recibe eventos externos de conectividad (p.ej. del sistema operativo).
func (m *Monitor) SetOnline(online bool) {
	select {
	case m.events <- online:
	default:
		m.log.Warn().Bool("online", online).Msg("evento de conectividad descartado, cola llena")
	}
}

// SyncNow pide una pasada inmediata. No bloquea; pedidos repetidos se funden en uno.
func (m *Monitor) SyncNow() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

func (m *Monitor) Status() Status {
	return Status{
		IsOnline:     m.online.Load(),
		IsSyncing:    m.syncing.Load() || m.engine.IsSyncing(),
		PendingCount: m.outbox.Len(),
	}
}

// Subscribe recibe el Status después de cada cambio.
func (m *Monitor) Subscribe(fn func(Status)) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.subSeq++
	id := m.subSeq
	m.subs[id] = fn
	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Monitor) probe(ctx context.Context) {
	if m.prober == nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, m.engine.cfg.RequestTimeout)
	defer cancel()
	err := m.prober.Ping(pctx)
	if err != nil && !errors.Is(ctx.Err(), context.Canceled) {
		m.log.Debug().Err(err).Msg("servidor no responde")
	}
	m.transition(ctx, err == nil)
}

// transition aplica el nuevo estado; offline→online dispara una pasada.
func (m *Monitor) transition(ctx context.Context, online bool) {
	was := m.online.Swap(online)
	if was == online {
		return
	}
	m.log.Info().Bool("online", online).Msg("cambio de conectividad")
	m.publish()
	if online {
		m.drain(ctx)
	}
}

func (m *Monitor) drain(ctx context.Context) {
	m.syncing.Store(true)
	m.publish()
	report, err := m.engine.Drain(ctx)
	m.syncing.Store(false)
	m.publish()

	if err != nil {
		if !errors.Is(err, ErrDrainInProgress) && ctx.Err() == nil {
			m.log.Error().Err(err).Msg("pasada de sincronización abortada")
		}
		return
	}
	if report.Attempted > 0 {
		m.log.Info().
			Int("succeeded", report.Succeeded).
			Int("failed", report.Failed).
			Int("pending", m.outbox.Len()).
			Msg("sincronización completada")
	}
}

func (m *Monitor) publish() {
	st := m.Status()
	m.subMu.Lock()
	fns := make([]func(Status), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}
