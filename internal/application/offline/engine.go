package offline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/pkg/logger"
	"github.com/jhoicas/pos-sync/pkg/metrics"
	"github.com/sourcegraph/conc/pool"
)

// Valores por defecto de la política de reintentos.
const (
	DefaultBaseDelay      = 5 * time.Second
	DefaultMaxDelay       = 5 * time.Minute
	DefaultRequestTimeout = 20 * time.Second
)

// EngineConfig política de reintentos y timeout por llamada.
type EngineConfig struct {
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	RequestTimeout time.Duration
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	return c
}

// DrainReport resumen de una pasada.
type DrainReport struct {
	Attempted int
	Succeeded int
	Failed    int
	Dead      int
	Skipped   int // cabeza de un tipo aún en backoff
	Deferred  int // factura con producto local sin confirmar
}

type outcome int

const (
	outcomeSucceeded outcome = iota
	outcomeFailed
	outcomeDead
	outcomeDeferred
	outcomeGone // cancelado entre el listado y el envío
)

// Engine lleva los ítems del outbox al servidor.
type Engine struct {
	store   *Store
	outbox  *Outbox
	remote  Remote
	cfg     EngineConfig
	log     *logger.Logger
	metrics *metrics.SyncMetrics
	now     func() time.Time
	running atomic.Bool
}

// EngineOption configura el Engine.
type EngineOption func(*Engine)

func WithEngineLogger(l *logger.Logger) EngineOption {
	return func(e *Engine) { e.log = l.Component("engine") }
}

func WithEngineMetrics(m *metrics.SyncMetrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithEngineClock reemplaza el reloj (tests de backoff).
func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine construye el motor de sincronización.
func NewEngine(store *Store, outbox *Outbox, remote Remote, cfg EngineConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		store:  store,
		outbox: outbox,
		remote: remote,
		cfg:    cfg.withDefaults(),
		log:    logger.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsSyncing true mientras una pasada de Drain está corriendo.
func (e *Engine) IsSyncing() bool { return e.running.Load() }

// Drain recorre el outbox una vez: productos, luego facturas, luego pagos, cada tipo en
// orden de encolado. Si la cabeza de un tipo no está lista o falla, el resto de ese tipo
// espera a la próxima pasada. Los errores por ítem se registran y no se devuelven.
// Una segunda llamada concurrente recibe ErrDrainInProgress.
func (e *Engine) Drain(ctx context.Context) (DrainReport, error) {
	var report DrainReport
	if !e.running.CompareAndSwap(false, true) {
		return report, ErrDrainInProgress
	}
	defer e.running.Store(false)

	start := e.now()
	defer func() {
		e.metrics.ObserveDrain(e.now().Sub(start))
		e.metrics.SetPending(e.outbox.Len())
	}()

	if err := e.outbox.Flush(ctx); err != nil {
		return report, err
	}

	confirmed := 0
	for _, kind := range drainOrder {
		for _, item := range e.outbox.Pending(kind) {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			if !e.due(item) {
				report.Skipped++
				break
			}
			res := e.process(ctx, item)
			if res == outcomeGone {
				continue
			}
			report.Attempted++
			if res == outcomeSucceeded {
				report.Succeeded++
				if kind != KindPayment {
					confirmed++
				}
				continue
			}
			if res == outcomeDead {
				report.Dead++
				continue
			}
			if res == outcomeDeferred {
				report.Deferred++
			} else {
				report.Failed++
			}
			break
		}
	}

	if confirmed > 0 {
		if err := e.RefreshCatalog(ctx); err != nil {
			e.log.Warn().Err(err).Msg("no se pudo refrescar el catálogo tras sincronizar")
		}
	}
	e.log.Debug().
		Int("attempted", report.Attempted).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Int("dead", report.Dead).
		Int("deferred", report.Deferred).
		Msg("pasada de sincronización")
	return report, nil
}

// due aplica delay = base * retries con tope MaxDelay desde el último intento.
func (e *Engine) due(item Item) bool {
	if item.Retries == 0 || item.LastAttempt.IsZero() {
		return true
	}
	return e.now().Sub(item.LastAttempt) >= e.Backoff(item.Retries)
}

// Backoff espera antes del siguiente intento tras retries fallos.
func (e *Engine) Backoff(retries int) time.Duration {
	if retries <= 0 {
		return 0
	}
	if int64(retries) > int64(e.cfg.MaxDelay/e.cfg.BaseDelay) {
		return e.cfg.MaxDelay
	}
	return e.cfg.BaseDelay * time.Duration(retries)
}

func (e *Engine) process(ctx context.Context, item Item) outcome {
	if !e.outbox.claim(item.ID) {
		return outcomeGone
	}
	defer e.outbox.release(item.ID)

	var err error
	switch m := item.Mutation.(type) {
	case CreateProduct:
		err = e.syncProduct(ctx, item, m)
	case CreateInvoice:
		err = e.syncInvoice(ctx, item, m)
	case CreatePayment:
		err = e.syncPayment(ctx, item, m)
	default:
		err = fmt.Errorf("%w: %T", ErrUnknownMutation, item.Mutation)
	}

	switch {
	case err == nil:
		e.metrics.IncItem(string(item.Kind), metrics.OutcomeSynced)
		return outcomeSucceeded
	case errors.Is(err, ErrUnresolvedReference):
		e.metrics.IncItem(string(item.Kind), metrics.OutcomeDeferred)
		e.log.Debug().Str("outbox_id", item.ID).Str("kind", string(item.Kind)).Msg("factura en espera de su producto")
		return outcomeDeferred
	case IsPermanent(err) || errors.Is(err, ErrUnknownMutation):
		e.log.Warn().Err(err).
			Str("outbox_id", item.ID).Str("kind", string(item.Kind)).
			Int("retries", item.Retries).Bool("permanent", true).
			Msg("servidor rechazó la mutación")
		if merr := e.outbox.MarkDead(ctx, item.ID, err); merr != nil {
			e.log.Error().Err(merr).Str("outbox_id", item.ID).Msg("no se pudo marcar el ítem como muerto")
		}
		e.metrics.IncItem(string(item.Kind), metrics.OutcomeDead)
		return outcomeDead
	default:
		e.log.Warn().Err(err).
			Str("outbox_id", item.ID).Str("kind", string(item.Kind)).
			Int("retries", item.Retries+1).Bool("permanent", false).
			Msg("falló la sincronización, se reintentará")
		if merr := e.outbox.MarkFailed(ctx, item.ID, err); merr != nil {
			e.log.Error().Err(merr).Str("outbox_id", item.ID).Msg("no se pudo registrar el fallo")
		}
		e.metrics.IncItem(string(item.Kind), metrics.OutcomeFailed)
		return outcomeFailed
	}
}

// syncProduct confirma el alta y reescribe el placeholder en el Store y en las facturas encoladas.
func (e *Engine) syncProduct(ctx context.Context, item Item, m CreateProduct) error {
	reqCtx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()
	resp, err := e.remote.CreateProduct(reqCtx, item.ID, m.Request)
	if err != nil {
		return err
	}
	remote := RemoteID(resp.ID)
	e.store.RewriteID(m.Local, remote)
	e.store.PutProduct(productFromDTO(*resp))
	if _, err := e.outbox.RewriteID(ctx, m.Local, remote); err != nil {
		e.log.Error().Err(err).Str("outbox_id", item.ID).Msg("no se pudieron reescribir referencias encoladas")
	}
	return e.dequeue(ctx, item)
}

func (e *Engine) syncInvoice(ctx context.Context, item Item, m CreateInvoice) error {
	req, err := m.Payload.Request()
	if err != nil {
		return err
	}
	reqCtx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()
	resp, err := e.remote.CreateInvoice(reqCtx, item.ID, req)
	if err != nil {
		return err
	}
	e.store.ConfirmInvoice(m.Local, resp.ID, resp.InvoiceNumber)
	e.log.Info().Str("outbox_id", item.ID).Str("invoice_number", resp.InvoiceNumber).
		Bool("replayed", resp.Replayed).Msg("factura conciliada")
	return e.dequeue(ctx, item)
}

func (e *Engine) syncPayment(ctx context.Context, item Item, m CreatePayment) error {
	reqCtx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()
	resp, err := e.remote.CreatePayment(reqCtx, item.ID, m.Request)
	if err != nil {
		return err
	}
	e.store.ConfirmPayment(m.Local, resp.ID, resp.Number)
	return e.dequeue(ctx, item)
}

// dequeue tras una confirmación. Si no se puede persistir, el ítem vuelve a enviarse en la
// próxima pasada con la misma clave y el servidor responde el resultado original.
func (e *Engine) dequeue(ctx context.Context, item Item) error {
	if err := e.outbox.DequeueOnSuccess(ctx, item.ID); err != nil {
		e.log.Error().Err(err).Str("outbox_id", item.ID).Msg("confirmado pero no se pudo quitar del outbox")
	}
	return nil
}

// RefreshCatalog descarga productos, clientes y proveedores en paralelo y los carga en el
// Store. Si una descarga falla no se reemplaza nada.
func (e *Engine) RefreshCatalog(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()

	var (
		products             []dto.ProductResponse
		customers, suppliers []dto.PartyResponse
	)
	p := pool.New().WithContext(reqCtx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) (err error) {
		if products, err = e.remote.ListProducts(ctx); err != nil {
			return fmt.Errorf("listar productos: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) (err error) {
		if customers, err = e.remote.ListParties(ctx, entity.PartyCustomer); err != nil {
			return fmt.Errorf("listar %s: %w", entity.PartyCustomer, err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) (err error) {
		if suppliers, err = e.remote.ListParties(ctx, entity.PartySupplier); err != nil {
			return fmt.Errorf("listar %s: %w", entity.PartySupplier, err)
		}
		return nil
	})
	if err := p.Wait(); err != nil {
		return err
	}

	catalog := make([]Product, 0, len(products))
	for _, pr := range products {
		catalog = append(catalog, productFromDTO(pr))
	}
	e.store.ReplaceCatalog(catalog)
	e.store.ReplaceParties(entity.PartyCustomer, partiesFromDTO(entity.PartyCustomer, customers))
	e.store.ReplaceParties(entity.PartySupplier, partiesFromDTO(entity.PartySupplier, suppliers))
	return nil
}

func partiesFromDTO(kind string, list []dto.PartyResponse) []Party {
	parties := make([]Party, 0, len(list))
	for _, p := range list {
		parties = append(parties, Party{ID: p.ID, Kind: kind, Name: p.Name, Phone: p.Phone, Balance: p.Balance})
	}
	return parties
}

func productFromDTO(p dto.ProductResponse) Product {
	return Product{
		ID:          RemoteID(p.ID),
		Name:        p.Name,
		Barcode:     p.Barcode,
		CategoryID:  p.CategoryID,
		Price:       p.Price,
		Cost:        p.Cost,
		Quantity:    p.Quantity,
		MinQuantity: p.MinQuantity,
	}
}
