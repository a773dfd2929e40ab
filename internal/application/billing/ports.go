package billing

import (
	"context"

	"github.com/jhoicas/pos-sync/internal/application/inventory"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción que incluye repos de inventario y facturación.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(repos repository.TxRepos) error) error
}

// InventoryUseCase interfaz para integrar facturación con inventario.
// ApplyInTx ejecuta el efecto de stock usando los repositorios del caller (misma transacción).
// Si retorna error (ej: ErrInsufficientStock), el caller debe hacer rollback.
type InventoryUseCase interface {
	ApplyInTx(
		ctx context.Context,
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		e inventory.StockEffect,
	) error
}

// ResultCache guarda resultados ya conciliados por clave de idempotencia (camino rápido de reintentos).
// Una falla del cache nunca bloquea la conciliación: la base de datos es la fuente de verdad.
type ResultCache interface {
	Get(ctx context.Context, scope, key string, dst any) bool
	Put(ctx context.Context, scope, key string, v any)
}

// ReceiptGenerator genera la representación imprimible de una factura conciliada.
type ReceiptGenerator interface {
	Generate(data ReceiptData) ([]byte, error)
}

// Actor usuario autenticado que ejecuta la operación.
type Actor struct {
	UserID string
	Role   string
}

// Scopes del cache de resultados.
const (
	scopeInvoice = "invoice"
	scopePayment = "payment"
)
