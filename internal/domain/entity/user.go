package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
)

// User representa un usuario del sistema (cajero, bodeguero o administrador).
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, bodeguero, vendedor
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidRole indica si el rol es conocido.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleBodeguero, RoleVendedor:
		return true
	}
	return false
}

// CanCreateInvoice decide qué tipos de factura puede registrar cada rol.
// Las compras afectan costo e inventario de proveedor: solo admin y bodeguero.
func CanCreateInvoice(role, invoiceType string) bool {
	switch invoiceType {
	case InvoiceTypeSale, InvoiceTypeReturn:
		return ValidRole(role)
	case InvoiceTypePurchase:
		return role == RoleAdmin || role == RoleBodeguero
	}
	return false
}
