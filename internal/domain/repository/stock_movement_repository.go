package repository

import (
	"context"

	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia para movimientos de inventario (DIP).
type StockMovementRepository interface {
	// Create devuelve domain.ErrDuplicate si ya existe un movimiento para (TransactionID, ProductID).
	Create(ctx context.Context, movement *entity.StockMovement) error
	ListByTransaction(ctx context.Context, transactionID string) ([]*entity.StockMovement, error)
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error)
}
