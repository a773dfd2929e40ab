package repository

import (
	"context"

	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar existencias y costo de un producto.
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	// GetForUpdate bloquea la fila del producto (SELECT FOR UPDATE). (nil, nil) si no existe.
	GetForUpdate(ctx context.Context, productID string) (*entity.Stock, error)
	// Set guarda cantidad y costo del producto.
	Set(ctx context.Context, stock *entity.Stock) error
}
