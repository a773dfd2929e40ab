package memory

import (
	"context"

	"github.com/jhoicas/pos-sync/internal/application/billing"
	"github.com/jhoicas/pos-sync/internal/application/inventory"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)
var _ billing.BillingTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks sobre una copia del estado; Commit reemplaza el estado, Rollback la descarta.
// Las transacciones se serializan (equivalente a los advisory locks de postgres).
type TxRunner struct {
	db *DB
}

// NewTxRunner construye el runner sobre la base.
func NewTxRunner(db *DB) *TxRunner {
	return &TxRunner{db: db}
}

func (r *TxRunner) run(ctx context.Context, fn func(tx *txSource) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	tx := &txSource{st: r.db.st.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.st = tx.st
	return nil
}

// Run transacción de inventario.
func (r *TxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	return r.run(ctx, func(tx *txSource) error {
		return fn(&StockRepo{src: tx}, &MovementRepo{src: tx})
	})
}

// RunBilling transacción de conciliación con todos los repositorios.
func (r *TxRunner) RunBilling(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	return r.run(ctx, func(tx *txSource) error {
		return fn(repository.TxRepos{
			Products:  &ProductRepo{src: tx},
			Stock:     &StockRepo{src: tx},
			Movements: &MovementRepo{src: tx},
			Customers: &PartyRepo{src: tx, kind: entity.PartyCustomer},
			Suppliers: &PartyRepo{src: tx, kind: entity.PartySupplier},
			Invoices:  &InvoiceRepo{src: tx},
			Payments:  &PaymentRepo{src: tx},
		})
	})
}
