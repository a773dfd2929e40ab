package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment abono de un cliente o pago a un proveedor. Reduce el saldo de la contraparte en Amount.
type Payment struct {
	ID             string
	Number         string // PAY000001
	CustomerID     string
	SupplierID     string
	Amount         decimal.Decimal
	Method         string
	Note           string
	CreatedBy      string
	IdempotencyKey string
	CreatedAt      time.Time
}

// Party devuelve el tipo y el ID de la contraparte del pago.
func (p *Payment) Party() (kind, id string) {
	if p.SupplierID != "" {
		return PartySupplier, p.SupplierID
	}
	return PartyCustomer, p.CustomerID
}
