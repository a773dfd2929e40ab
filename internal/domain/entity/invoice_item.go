package entity

import "github.com/shopspring/decimal"

// InvoiceItem línea de factura.
type InvoiceItem struct {
	ID        string
	InvoiceID string
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}
