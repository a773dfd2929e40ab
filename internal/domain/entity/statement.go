package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento en el estado de cuenta.
const (
	StatementInvoice     = "invoice"
	StatementInvoicePaid = "invoice_payment" // abono hecho al momento de facturar
	StatementReturn      = "return"
	StatementReturnPaid  = "return_refund"
	StatementPayment     = "payment"
)

// StatementLine movimiento del estado de cuenta de un cliente o proveedor.
type StatementLine struct {
	Date           time.Time
	Reference      string
	Kind           string
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	RunningBalance decimal.Decimal
}
