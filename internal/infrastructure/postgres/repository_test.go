package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

// unusedQuerier falla el test si un repositorio llega a la base de datos.
type unusedQuerier struct{ t *testing.T }

func (q unusedQuerier) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	q.t.Fatalf("consulta inesperada: %s", sql)
	return pgconn.CommandTag{}, nil
}

func (q unusedQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	q.t.Fatalf("consulta inesperada: %s", sql)
	return nil, nil
}

func (q unusedQuerier) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	q.t.Fatalf("consulta inesperada: %s", sql)
	return nil
}

// Un id que no es UUID no existe: se responde como fila ausente sin enviar la sentencia,
// que en Postgres fallaría con 22P02 y abortaría la transacción.
func TestRepos_IDNoUUIDEsInexistente(t *testing.T) {
	ctx := context.Background()
	q := unusedQuerier{t: t}

	p, err := NewProductRepository(q).GetByID(ctx, "fantasma")
	require.NoError(t, err)
	assert.Nil(t, p)

	s, err := NewStockRepository(q).GetForUpdate(ctx, "fantasma")
	require.NoError(t, err)
	assert.Nil(t, s)

	party, err := NewCustomerRepository(q).GetByID(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, party)
	assert.ErrorIs(t, NewCustomerRepository(q).ApplyBalance(ctx, "abc", decimal.NewFromInt(1), decimal.Zero), domain.ErrNotFound)

	invoices := NewInvoiceRepository(q)
	inv, err := invoices.GetByID(ctx, "INV000001")
	require.NoError(t, err)
	assert.Nil(t, inv)
	returned, err := invoices.ReturnedQuantities(ctx, "x")
	require.NoError(t, err)
	assert.Empty(t, returned)
	list, err := invoices.ListByParty(ctx, entity.PartyCustomer, "x")
	require.NoError(t, err)
	assert.Empty(t, list)

	pay, err := NewPaymentRepository(q).GetByID(ctx, "PAY000001")
	require.NoError(t, err)
	assert.Nil(t, pay)

	u, err := NewUserRepository(q).GetByID(ctx, "admin")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestRepos_CreateConReferenciaNoUUID(t *testing.T) {
	ctx := context.Background()
	q := unusedQuerier{t: t}
	invoices := NewInvoiceRepository(q)

	err := invoices.Create(ctx, &entity.Invoice{
		ID:    "8c1f1f6e-3d5b-4a8e-9a51-6b0f0f1d2c3a",
		Type:  entity.InvoiceTypeSale,
		Items: []entity.InvoiceItem{{ProductID: "fantasma"}},
	})
	assert.ErrorIs(t, err, domain.ErrUnknownProduct)

	err = invoices.Create(ctx, &entity.Invoice{Type: entity.InvoiceTypeSale, CustomerID: "cliente-1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = NewPaymentRepository(q).Create(ctx, &entity.Payment{SupplierID: "prov", Amount: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIsInvalidText(t *testing.T) {
	assert.True(t, isInvalidText(&pgconn.PgError{Code: "22P02"}))
	assert.False(t, isInvalidText(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isInvalidText(errors.New("x")))
	assert.True(t, allUUID("", "8c1f1f6e-3d5b-4a8e-9a51-6b0f0f1d2c3a"))
	assert.False(t, allUUID("", "nope"))
}
