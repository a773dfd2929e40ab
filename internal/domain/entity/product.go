package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// Quantity solo cambia por conciliación de facturas (venta, compra, devolución) o por ajuste directo.
type Product struct {
	ID             string
	Name           string
	Barcode        string
	CategoryID     string
	Price          decimal.Decimal // precio de venta
	Cost           decimal.Decimal // costo promedio ponderado
	Quantity       decimal.Decimal // existencias
	MinQuantity    decimal.Decimal // umbral de alerta de stock bajo
	IdempotencyKey string          // clave del outbox del terminal que lo creó (vacío si se creó en línea)
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsLowStock indica si las existencias están en o por debajo del mínimo.
func (p *Product) IsLowStock() bool {
	return p.Quantity.LessThanOrEqual(p.MinQuantity)
}
