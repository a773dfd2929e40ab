package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de factura.
const (
	InvoiceTypeSale     = "sale"
	InvoiceTypePurchase = "purchase"
	InvoiceTypeReturn   = "return"
)

// Estados de factura.
const (
	InvoiceStatusPending   = "pending"
	InvoiceStatusCompleted = "completed"
	InvoiceStatusCancelled = "cancelled"
)

// Prefijos de numeración.
const (
	PrefixSale     = "INV"
	PrefixPurchase = "PUR"
	PrefixReturn   = "RET"
	PrefixPayment  = "PAY"
)

// Invoice cabecera de factura (venta, compra o devolución).
// total = subtotal - discount + tax; remaining = total - paid.
// Los ítems no cambian una vez conciliada; las correcciones son facturas de devolución.
type Invoice struct {
	ID                string
	Number            string
	Type              string
	CustomerID        string
	SupplierID        string
	OriginalInvoiceID string // solo devoluciones
	Items             []InvoiceItem
	Subtotal          decimal.Decimal
	Discount          decimal.Decimal
	Tax               decimal.Decimal
	Total             decimal.Decimal
	Paid              decimal.Decimal
	Remaining         decimal.Decimal
	Status            string
	PaymentMethod     string
	CreatedBy         string
	IdempotencyKey    string
	CreatedAt         time.Time
}

// ValidInvoiceType indica si el tipo es conocido.
func ValidInvoiceType(t string) bool {
	switch t {
	case InvoiceTypeSale, InvoiceTypePurchase, InvoiceTypeReturn:
		return true
	}
	return false
}

// NumberPrefix devuelve el prefijo de numeración del tipo.
func NumberPrefix(invoiceType string) string {
	switch invoiceType {
	case InvoiceTypePurchase:
		return PrefixPurchase
	case InvoiceTypeReturn:
		return PrefixReturn
	default:
		return PrefixSale
	}
}

// FormatNumber arma el consecutivo: prefijo + 6 dígitos (INV000001).
func FormatNumber(prefix string, seq int64) string {
	return fmt.Sprintf("%s%06d", prefix, seq)
}

// BalanceDelta efecto de la factura sobre el saldo de su contraparte: solo el saldo pendiente.
// Las devoluciones reducen lo que el cliente debe.
func (i *Invoice) BalanceDelta() decimal.Decimal {
	if i.Type == InvoiceTypeReturn {
		return i.Remaining.Neg()
	}
	return i.Remaining
}

// PurchasesDelta efecto sobre el acumulado histórico de la contraparte.
func (i *Invoice) PurchasesDelta() decimal.Decimal {
	if i.Type == InvoiceTypeReturn {
		return i.Total.Neg()
	}
	return i.Total
}

// ComputeTotals recalcula subtotal, total y saldo a partir de los ítems.
func (i *Invoice) ComputeTotals() {
	subtotal := decimal.Zero
	for k := range i.Items {
		i.Items[k].LineTotal = i.Items[k].Quantity.Mul(i.Items[k].UnitPrice)
		subtotal = subtotal.Add(i.Items[k].LineTotal)
	}
	i.Subtotal = subtotal
	i.Total = subtotal.Sub(i.Discount).Add(i.Tax)
	i.Remaining = i.Total.Sub(i.Paid)
}

// Party devuelve el tipo y el ID de la contraparte: proveedor en compras, cliente en ventas y devoluciones.
func (i *Invoice) Party() (kind, id string) {
	if i.Type == InvoiceTypePurchase {
		return PartySupplier, i.SupplierID
	}
	return PartyCustomer, i.CustomerID
}
