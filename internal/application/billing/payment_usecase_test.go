package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

func TestRegisterPayment_NumeraYReduceSaldo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.product(t, "P", "10", "1")
	cust := f.customer(t, "Ana")
	req := sale(item("P", "1", "100"))
	req.CustomerID = cust
	_, err := f.invoices.CreateInvoice(ctx, admin, "", req)
	require.NoError(t, err)

	first, err := f.payments.RegisterPayment(ctx, admin, "pay-1", dto.CreatePaymentRequest{CustomerID: cust, Amount: dec("60"), Method: "cash"})
	require.NoError(t, err)
	assert.Equal(t, "PAY000001", first.Number)

	replay, err := f.payments.RegisterPayment(ctx, admin, "pay-1", dto.CreatePaymentRequest{CustomerID: cust, Amount: dec("60")})
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, first.ID, replay.ID)

	second, err := f.payments.RegisterPayment(ctx, admin, "pay-2", dto.CreatePaymentRequest{CustomerID: cust, Amount: dec("10")})
	require.NoError(t, err)
	assert.Equal(t, "PAY000002", second.Number)

	assert.True(t, dec("30").Equal(f.balance(t, entity.PartyCustomer, cust)))
}

func TestRegisterPayment_Validaciones(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	cust := f.customer(t, "Ana")
	sup := f.supplier(t, "Mayorista")

	_, err := f.payments.RegisterPayment(ctx, admin, "", dto.CreatePaymentRequest{Amount: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin contraparte")
	_, err = f.payments.RegisterPayment(ctx, admin, "", dto.CreatePaymentRequest{CustomerID: cust, SupplierID: sup, Amount: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "dos contrapartes")
	_, err = f.payments.RegisterPayment(ctx, admin, "", dto.CreatePaymentRequest{CustomerID: cust, Amount: dec("0")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.payments.RegisterPayment(ctx, admin, "", dto.CreatePaymentRequest{CustomerID: "nadie", Amount: dec("5")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	seq, _ := f.db.Payments().NextSequence(ctx)
	assert.Equal(t, int64(1), seq, "el pago fallido no consumió número")
}
