package repository

import "github.com/jhoicas/pos-sync/internal/domain/entity"

// TxRepos agrupa los repositorios atados a una misma transacción de conciliación.
type TxRepos struct {
	Products  ProductRepository
	Stock     StockRepository
	Movements StockMovementRepository
	Customers PartyRepository
	Suppliers PartyRepository
	Invoices  InvoiceRepository
	Payments  PaymentRepository
}

// Parties devuelve el repositorio del tipo de contraparte.
func (r TxRepos) Parties(kind string) PartyRepository {
	if kind == entity.PartySupplier {
		return r.Suppliers
	}
	return r.Customers
}
