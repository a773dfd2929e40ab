package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock vista bloqueada (SELECT FOR UPDATE) de las existencias y costo de un producto.
type Stock struct {
	ProductID string
	Quantity  decimal.Decimal
	Cost      decimal.Decimal
	UpdatedAt time.Time
}
