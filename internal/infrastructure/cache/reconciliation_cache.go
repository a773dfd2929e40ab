package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jhoicas/pos-sync/internal/application/billing"
	"github.com/jhoicas/pos-sync/pkg/logger"
	"github.com/jhoicas/pos-sync/pkg/redis"
)

var _ billing.ResultCache = (*ReconciliationCache)(nil)

// DefaultTTL cubre de sobra la ventana de reintentos de un terminal.
const DefaultTTL = 24 * time.Hour

// Store lo que el cache necesita del cliente Redis.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	IdempotencyKey(scope, id string) string
}

// ReconciliationCache guarda en Redis la respuesta de cada factura o pago ya conciliado,
// indexada por la clave de idempotencia del outbox. Los errores solo se registran.
type ReconciliationCache struct {
	store Store
	ttl   time.Duration
	log   *logger.Logger
}

// NewReconciliationCache construye el cache. ttl <= 0 usa DefaultTTL.
func NewReconciliationCache(store Store, ttl time.Duration, log *logger.Logger) *ReconciliationCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ReconciliationCache{store: store, ttl: ttl, log: log.Component("reconciliation_cache")}
}

// Get decodifica en dst el resultado guardado. false si no hay o si falla Redis.
func (c *ReconciliationCache) Get(ctx context.Context, scope, key string, dst any) bool {
	if key == "" {
		return false
	}
	raw, err := c.store.Get(ctx, c.store.IdempotencyKey(scope, key))
	if err != nil {
		if !errors.Is(err, redis.ErrMiss) {
			c.log.Warn().Err(err).Str("scope", scope).Msg("cache: lectura falló, se consulta la base")
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		c.log.Warn().Err(err).Str("scope", scope).Msg("cache: valor corrupto")
		return false
	}
	return true
}

// Put guarda v serializado en JSON.
func (c *ReconciliationCache) Put(ctx context.Context, scope, key string, v any) {
	if key == "" {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Str("scope", scope).Msg("cache: no se pudo serializar")
		return
	}
	if err := c.store.Set(ctx, c.store.IdempotencyKey(scope, key), string(b), c.ttl); err != nil {
		c.log.Warn().Err(err).Str("scope", scope).Msg("cache: escritura falló")
	}
}
