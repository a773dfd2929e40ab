package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para Invoice e ítems.
type InvoiceRepository interface {
	// Create guarda cabecera e ítems. domain.ErrDuplicate si el número o la clave de idempotencia ya existen.
	Create(ctx context.Context, invoice *entity.Invoice) error
	// GetByID devuelve la factura con sus ítems.
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.Invoice, error)
	// NextSequence serializa la numeración por tipo (lock de la transacción) y devuelve conteo+1.
	NextSequence(ctx context.Context, invoiceType string) (int64, error)
	// List cabeceras de todas las facturas, la más reciente primero.
	List(ctx context.Context, limit, offset int) ([]*entity.Invoice, error)
	// ListByParty lista cabeceras de la contraparte ordenadas por fecha.
	ListByParty(ctx context.Context, partyKind, partyID string) ([]*entity.Invoice, error)
	// ReturnedQuantities suma, por producto, lo ya devuelto contra la factura original.
	ReturnedQuantities(ctx context.Context, originalInvoiceID string) (map[string]decimal.Decimal, error)
}
