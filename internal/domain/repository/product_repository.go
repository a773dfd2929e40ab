package repository

import (
	"context"

	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Los Get devuelven (nil, nil) cuando no existe el registro.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetByIdempotencyKey busca el producto creado por un ítem de outbox (reintentos del terminal).
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.Product, error)
	// Update modifica datos de catálogo. No toca Quantity ni Cost (se manejan vía StockRepository).
	Update(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	ListLowStock(ctx context.Context) ([]*entity.Product, error)
}
