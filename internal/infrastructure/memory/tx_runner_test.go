package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
)

func seedProduct(t *testing.T, db *DB, id string, qty int64) {
	t.Helper()
	require.NoError(t, db.Products().Create(context.Background(), &entity.Product{
		ID: id, Name: id, Quantity: decimal.NewFromInt(qty), CreatedAt: time.Now(),
	}))
}

func TestRunBilling_RollbackDescartaCambios(t *testing.T) {
	ctx := context.Background()
	db := New()
	seedProduct(t, db, "p1", 10)
	tx := NewTxRunner(db)

	boom := errors.New("boom")
	err := tx.RunBilling(ctx, func(repos repository.TxRepos) error {
		st, err := repos.Stock.GetForUpdate(ctx, "p1")
		require.NoError(t, err)
		st.Quantity = decimal.NewFromInt(1)
		require.NoError(t, repos.Stock.Set(ctx, st))
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := db.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(p.Quantity), "rollback no debe dejar rastro")
}

func TestRunBilling_CommitAplicaCambios(t *testing.T) {
	ctx := context.Background()
	db := New()
	seedProduct(t, db, "p1", 10)
	tx := NewTxRunner(db)

	err := tx.Run(ctx, func(stock repository.StockRepository, mov repository.StockMovementRepository) error {
		st, err := stock.GetForUpdate(ctx, "p1")
		if err != nil {
			return err
		}
		st.Quantity = decimal.NewFromInt(7)
		if err := mov.Create(ctx, &entity.StockMovement{ID: "m1", TransactionID: "t1", ProductID: "p1"}); err != nil {
			return err
		}
		return stock.Set(ctx, st)
	})
	require.NoError(t, err)

	p, _ := db.Products().GetByID(ctx, "p1")
	assert.True(t, decimal.NewFromInt(7).Equal(p.Quantity))
	movs, _ := db.Movements().ListByTransaction(ctx, "t1")
	assert.Len(t, movs, 1)
}

func TestMovementRepo_UnicoPorTransaccionYProducto(t *testing.T) {
	ctx := context.Background()
	db := New()
	m := &entity.StockMovement{ID: "m1", TransactionID: "inv-1", ProductID: "p1"}
	require.NoError(t, db.Movements().Create(ctx, m))
	err := db.Movements().Create(ctx, &entity.StockMovement{ID: "m2", TransactionID: "inv-1", ProductID: "p1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestInvoiceRepo_ClaveDeIdempotenciaUnica(t *testing.T) {
	ctx := context.Background()
	db := New()
	require.NoError(t, db.Invoices().Create(ctx, &entity.Invoice{ID: "a", Number: "INV000001", Type: entity.InvoiceTypeSale, IdempotencyKey: "k"}))
	err := db.Invoices().Create(ctx, &entity.Invoice{ID: "b", Number: "INV000002", Type: entity.InvoiceTypeSale, IdempotencyKey: "k"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	seq, err := db.Invoices().NextSequence(ctx, entity.InvoiceTypeSale)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
	seq, _ = db.Invoices().NextSequence(ctx, entity.InvoiceTypePurchase)
	assert.Equal(t, int64(1), seq, "la secuencia es por tipo")
}

func TestRun_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewTxRunner(New()).RunBilling(ctx, func(repository.TxRepos) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
