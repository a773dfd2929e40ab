package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de contraparte.
const (
	PartyCustomer = "customer"
	PartySupplier = "supplier"
)

// Party cliente o proveedor (misma forma, tablas separadas).
// Balance positivo: para clientes, lo que deben al negocio; para proveedores, lo que el negocio les debe.
// Balance solo lo modifica la conciliación (facturas y pagos), nunca una edición directa.
type Party struct {
	ID             string
	Name           string
	Phone          string
	Email          string
	Address        string
	Notes          string
	Balance        decimal.Decimal
	TotalPurchases decimal.Decimal // acumulado histórico de facturas
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidPartyKind indica si el tipo de contraparte es conocido.
func ValidPartyKind(kind string) bool {
	return kind == PartyCustomer || kind == PartySupplier
}
