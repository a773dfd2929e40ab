package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-sync/internal/application/billing"
	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/application/inventory"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/infrastructure/memory"
)

var admin = billing.Actor{UserID: "u-admin", Role: entity.RoleAdmin}

type fixture struct {
	db       *memory.DB
	invoices *billing.CreateInvoiceUseCase
	payments *billing.PaymentUseCase
	parties  *billing.PartyUseCase
}

func newFixture(t *testing.T, cache billing.ResultCache) *fixture {
	t.Helper()
	db := memory.New()
	tx := memory.NewTxRunner(db)
	return &fixture{
		db:       db,
		invoices: billing.NewCreateInvoiceUseCase(tx, inventory.NewStockUseCase(tx), db.Invoices(), cache, nil, nil),
		payments: billing.NewPaymentUseCase(tx, db.Payments(), cache, nil, nil),
		parties:  billing.NewPartyUseCase(db.Customers(), db.Suppliers(), db.Invoices(), db.Payments()),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) product(t *testing.T, id, qty, cost string) {
	t.Helper()
	require.NoError(t, f.db.Products().Create(context.Background(), &entity.Product{
		ID: id, Name: "Producto " + id, Price: dec("100"), Cost: dec(cost), Quantity: dec(qty),
		MinQuantity: dec("1"), CreatedAt: time.Now(),
	}))
}

func (f *fixture) customer(t *testing.T, name string) string {
	t.Helper()
	c, err := f.parties.Create(context.Background(), entity.PartyCustomer, dto.CreatePartyRequest{Name: name})
	require.NoError(t, err)
	return c.ID
}

func (f *fixture) supplier(t *testing.T, name string) string {
	t.Helper()
	s, err := f.parties.Create(context.Background(), entity.PartySupplier, dto.CreatePartyRequest{Name: name})
	require.NoError(t, err)
	return s.ID
}

func (f *fixture) stock(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	p, err := f.db.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Quantity
}

func (f *fixture) balance(t *testing.T, kind, id string) decimal.Decimal {
	t.Helper()
	p, err := f.parties.Get(context.Background(), kind, id)
	require.NoError(t, err)
	return p.Balance
}

func sale(items ...dto.InvoiceItemRequest) dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{Type: entity.InvoiceTypeSale, Items: items}
}

func item(productID, qty, price string) dto.InvoiceItemRequest {
	return dto.InvoiceItemRequest{ProductID: productID, Quantity: dec(qty), UnitPrice: dec(price)}
}

// fakeCache cache de resultados en memoria para verificar el camino rápido.
type fakeCache struct {
	data map[string]any
	gets int
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string]any{}} }

func (c *fakeCache) Get(_ context.Context, scope, key string, dst any) bool {
	c.gets++
	v, ok := c.data[scope+":"+key]
	if !ok {
		return false
	}
	switch d := dst.(type) {
	case *dto.CreateInvoiceResponse:
		*d = *(v.(*dto.CreateInvoiceResponse))
	case *dto.CreatePaymentResponse:
		*d = *(v.(*dto.CreatePaymentResponse))
	}
	return true
}

func (c *fakeCache) Put(_ context.Context, scope, key string, v any) {
	switch r := v.(type) {
	case *dto.CreateInvoiceResponse:
		cp := *r
		c.data[scope+":"+key] = &cp
	case *dto.CreatePaymentResponse:
		cp := *r
		c.data[scope+":"+key] = &cp
	}
}
