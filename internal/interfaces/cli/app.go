package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/jhoicas/pos-sync/internal/application/offline"
	"github.com/jhoicas/pos-sync/internal/infrastructure/remote"
	"github.com/jhoicas/pos-sync/internal/infrastructure/sqlite"
	"github.com/jhoicas/pos-sync/pkg/config"
	"github.com/jhoicas/pos-sync/pkg/jwt"
	"github.com/jhoicas/pos-sync/pkg/logger"
	"github.com/jhoicas/pos-sync/pkg/metrics"
)

// App recursos del terminal para una ejecución de posclient.
type App struct {
	cfg       config.ClientConfig
	log       *logger.Logger
	db        *sqlite.DB
	snapshots *sqlite.SnapshotRepository
	session   *sqlite.Session

	Registry *prometheus.Registry
	Store    *offline.Store
	Outbox   *offline.Outbox
	Remote   *remote.Client
	Engine   *offline.Engine
	Monitor  *offline.Monitor
	POS      *offline.POS

	unsubscribe func()
}

// Open abre la base local, restaura el Store y arma el Engine y el Monitor.
// Un outbox que no carga no impide abrir: el terminal sigue mostrando datos
// y el Engine se niega a drenar hasta que se pueda persistir.
func Open(ctx context.Context, cfg config.ClientConfig, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	db, err := sqlite.Open(cfg.DataPath)
	if err != nil {
		return nil, err
	}
	a := &App{
		cfg:       cfg,
		log:       log,
		db:        db,
		snapshots: sqlite.NewSnapshotRepository(db),
		Registry:  prometheus.NewRegistry(),
		Store:     offline.NewStore(),
	}

	a.session, err = a.snapshots.LoadSession(ctx)
	if err != nil {
		return nil, multierr.Append(err, db.Close())
	}
	token := cfg.Token
	if token == "" && a.session != nil {
		token = a.session.Token
	} else if token != "" {
		a.session = sessionFromToken(token, "")
	}

	snap, err := a.snapshots.LoadSnapshot(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("no se pudo leer el estado local; se inicia vacío")
	} else if snap != nil {
		a.Store.Restore(*snap)
	}

	a.Outbox = offline.NewOutbox(sqlite.NewOutboxRepository(db))
	if err := a.Outbox.Load(ctx); err != nil {
		log.Error().Err(err).Msg("no se pudo cargar el outbox")
	}

	a.Remote = remote.New(cfg.ServerURL,
		remote.WithToken(token),
		remote.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
	)
	a.Engine = offline.NewEngine(a.Store, a.Outbox, a.Remote, offline.EngineConfig{
		BaseDelay:      cfg.BaseDelay,
		MaxDelay:       cfg.MaxDelay,
		RequestTimeout: cfg.RequestTimeout,
	}, offline.WithEngineLogger(log), offline.WithEngineMetrics(metrics.NewSyncMetrics(a.Registry)))
	a.Monitor = offline.NewMonitor(a.Engine, a.Outbox, a.Remote, offline.MonitorConfig{
		SyncInterval:  cfg.SyncInterval,
		ProbeInterval: cfg.ProbeInterval,
	}, log)
	a.POS = offline.NewPOS(a.Store, a.Outbox, appSession{app: a})

	a.unsubscribe = a.Store.Subscribe(func(offline.Event) { a.saveSnapshot() })
	return a, nil
}

func (a *App) saveSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.snapshots.SaveSnapshot(ctx, a.Store.Snapshot()); err != nil {
		a.log.Error().Err(err).Msg("no se pudo guardar el estado local")
	}
}

// Session usuario con sesión en el terminal; nil si nadie inició sesión.
func (a *App) Session() *sqlite.Session { return a.session }

// Login autentica contra el servidor y guarda el token para las siguientes ejecuciones.
func (a *App) Login(ctx context.Context, email, password string) (*sqlite.Session, error) {
	resp, err := a.Remote.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s := sessionFromToken(resp.Token, resp.User.Email)
	if s.UserID == "" {
		s.UserID = resp.User.ID
		s.Role = resp.User.Role
	}
	if err := a.snapshots.SaveSession(ctx, *s); err != nil {
		return nil, err
	}
	a.Remote.SetToken(resp.Token)
	a.session = s
	return s, nil
}

// Logout borra la sesión guardada.
func (a *App) Logout(ctx context.Context) error {
	a.session = nil
	a.Remote.SetToken("")
	return a.snapshots.ClearSession(ctx)
}

// Close guarda el estado y libera la base local.
func (a *App) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return multierr.Combine(
		a.snapshots.SaveSnapshot(ctx, a.Store.Snapshot()),
		a.db.Close(),
	)
}

func sessionFromToken(token, email string) *sqlite.Session {
	s := &sqlite.Session{Token: token, Email: email}
	if id, err := jwt.Peek(token); err == nil {
		s.UserID = id.UserID
		s.Role = id.Role
		s.ExpiresAt = id.ExpiresAt
	}
	return s
}

func (a *App) expired() bool {
	return a.session != nil && !a.session.ExpiresAt.IsZero() && time.Now().After(a.session.ExpiresAt)
}

// appSession expone la sesión vigente al POS aunque cambie tras un login.
type appSession struct{ app *App }

func (s appSession) CurrentUserID() string { return s.app.session.CurrentUserID() }
func (s appSession) CurrentRole() string   { return s.app.session.CurrentRole() }

func describeErr(err error) error {
	if remote.IsUnauthorized(err) {
		return fmt.Errorf("sesión inválida o expirada, ejecute posclient login: %w", err)
	}
	return err
}
