package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeIn     = "in"     // compra o devolución
	MovementTypeOut    = "out"    // venta
	MovementTypeAdjust = "adjust" // edición directa de existencias
)

// StockMovement registro de cada cambio de existencias.
// (TransactionID, ProductID) es único: una factura no mueve dos veces el mismo producto.
type StockMovement struct {
	ID            string
	TransactionID string          // factura o ajuste que originó el movimiento
	ProductID     string
	Type          string
	Quantity      decimal.Decimal // positivo entrada, negativo salida
	UnitCost      decimal.Decimal
	Reference     string // número de factura o motivo del ajuste
	CreatedBy     string
	CreatedAt     time.Time
}
