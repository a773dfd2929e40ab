package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

// PartyRepository define el puerto de persistencia para clientes o proveedores.
// Hay una instancia por tabla (customers, suppliers).
type PartyRepository interface {
	Create(ctx context.Context, party *entity.Party) error
	GetByID(ctx context.Context, id string) (*entity.Party, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Party, error)
	// ApplyBalance suma los deltas al saldo y al acumulado. domain.ErrNotFound si no existe.
	ApplyBalance(ctx context.Context, id string, balanceDelta, purchasesDelta decimal.Decimal) error
}
