package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-sync/internal/application/billing"
	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

func TestCreateInvoice_VentaSinCliente(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.product(t, "P", "10", "60")

	resp, err := f.invoices.CreateInvoice(ctx, admin, "outbox-1", sale(item("P", "2", "100")))
	require.NoError(t, err)

	assert.Equal(t, "INV000001", resp.InvoiceNumber)
	assert.False(t, resp.Replayed)
	assert.True(t, dec("8").Equal(f.stock(t, "P")))

	inv, err := f.invoices.GetInvoice(ctx, resp.ID)
	require.NoError(t, err)
	assert.True(t, dec("200").Equal(inv.Total))
	assert.Equal(t, entity.InvoiceStatusPending, inv.Status)
	assert.Equal(t, admin.UserID, inv.CreatedBy)
}

func TestCreateInvoice_ReintentoNoDescuentaDosVeces(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.product(t, "P", "10", "60")
	req := sale(item("P", "3", "100"))

	first, err := f.invoices.CreateInvoice(ctx, admin, "outbox-1", req)
	require.NoError(t, err)
	second, err := f.invoices.CreateInvoice(ctx, admin, "outbox-1", req)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.InvoiceNumber, second.InvoiceNumber)
	assert.True(t, dec("7").Equal(f.stock(t, "P")), "el stock baja exactamente una vez")

	next, err := f.invoices.CreateInvoice(ctx, admin, "outbox-2", req)
	require.NoError(t, err)
	assert.Equal(t, "INV000002", next.InvoiceNumber, "el reintento no consume número")
}

func TestCreateInvoice_NumeracionMonotonaPorTipo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.product(t, "P", "100", "10")

	var numbers []string
	for i := 0; i < 3; i++ {
		resp, err := f.invoices.CreateInvoice(ctx, admin, "", sale(item("P", "1", "20")))
		require.NoError(t, err)
		numbers = append(numbers, resp.InvoiceNumber)
	}
	assert.Equal(t, []string{"INV000001", "INV000002", "INV000003"}, numbers)

	sup := f.supplier(t, "Mayorista")
	purchase, err := f.invoices.CreateInvoice(ctx, admin, "", dto.CreateInvoiceRequest{
		Type: entity.InvoiceTypePurchase, SupplierID: sup, Items: []dto.InvoiceItemRequest{item("P", "5", "10")},
	})
	require.NoError(t, err)
	assert.Equal(t, "PUR000001", purchase.InvoiceNumber)
}

func TestCreateInvoice_ProductoDesconocidoNoMutaNada(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.product(t, "A", "10", "1")
	cust := f.customer(t, "Ana")

	req := sale(item("A", "1", "100"), item("ZZZ", "1", "100"))
	req.CustomerID = cust
	_, err := f.invoices.CreateInvoice(ctx, admin, "k", req)
	require.ErrorIs(t, err, domain.ErrUnknownProduct)

	assert.True(t, dec("10").Equal(f.stock(t, "A")))
	assert.True(t, f.balance(t, entity.PartyCustomer, cust).IsZero())
	seq, _ := f.db.Invoices().NextSequence(ctx, entity.InvoiceTypeSale)
	assert.Equal(t, int64(1), seq, "no se guardó ninguna factura")
}

func TestCreateInvoice_StockInsuficienteHaceRollback(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.product(t, "A", "10", "1")
	f.product(t, "B", "1", "1")

	_, err := f.invoices.CreateInvoice(ctx, admin, "", sale(item("A", "4", "10"), item("B", "2", "10")))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.True(t, dec("10").Equal(f.stock(t, "A")), "A se descontó antes de fallar B y debe volver")
	assert.True(t, dec("1").Equal(f.stock(t, "B")))
}

func TestCreateInvoice_SaldoSoloPorElRestante(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.product(t, "P", "10", "50")
	cust := f.customer(t, "Ana")

	req := sale(item("P", "2", "100"))
	req.CustomerID = cust
	req.Paid = dec("50")
	_, err := f.invoices.CreateInvoice(ctx, admin, "", req)
	require.NoError(t, err)

	c, err := f.parties.Get(ctx, entity.PartyCustomer, cust)
	require.NoError(t, err)
	assert.True(t, dec("150").Equal(c.Balance))
	assert.True(t, dec("200").Equal(c.TotalPurchases))
}

func TestCreateInvoice_LineasRepetidasSeSuman(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.product(t, "P", "10", "50")

	resp, err := f.invoices.CreateInvoice(ctx, admin, "", sale(item("P", "2", "100"), item("P", "3", "90")))
	require.NoError(t, err)
	assert.True(t, dec("5").Equal(f.stock(t, "P")))

	movs, err := f.db.Movements().ListByTransaction(ctx, resp.ID)
	require.NoError(t, err)
	require.Len(t, movs, 1, "un movimiento por producto y factura")
	assert.True(t, dec("-5").Equal(movs[0].Quantity))
}

func TestCreateInvoice_CompraActualizaCostoPromedio(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.product(t, "P", "10", "100")
	sup := f.supplier(t, "Mayorista")

	_, err := f.invoices.CreateInvoice(ctx, admin, "", dto.CreateInvoiceRequest{
		Type:       entity.InvoiceTypePurchase,
		SupplierID: sup,
		Items:      []dto.InvoiceItemRequest{item("P", "10", "200")},
		Paid:       dec("500"),
	})
	require.NoError(t, err)

	p, _ := f.db.Products().GetByID(ctx, "P")
	assert.True(t, dec("20").Equal(p.Quantity))
	assert.True(t, dec("150").Equal(p.Cost))
	assert.True(t, dec("1500").Equal(f.balance(t, entity.PartySupplier, sup)))
}

func TestCreateInvoice_DevolucionAcotadaPorOriginal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.product(t, "P", "10", "50")
	cust := f.customer(t, "Ana")

	req := sale(item("P", "3", "100"))
	req.CustomerID = cust
	orig, err := f.invoices.CreateInvoice(ctx, admin, "", req)
	require.NoError(t, err)

	ret := func(qty, price string) (*dto.CreateInvoiceResponse, error) {
		return f.invoices.CreateInvoice(ctx, admin, "", dto.CreateInvoiceRequest{
			Type:              entity.InvoiceTypeReturn,
			OriginalInvoiceID: orig.ID,
			Items:             []dto.InvoiceItemRequest{item("P", qty, price)},
		})
	}

	first, err := ret("2", "100")
	require.NoError(t, err)
	assert.Equal(t, "RET000001", first.InvoiceNumber)

	_, err = ret("2", "100")
	require.ErrorIs(t, err, domain.ErrReturnExceedsOriginal, "2 devueltas + 2 > 3 vendidas")

	_, err = ret("1", "150")
	require.ErrorIs(t, err, domain.ErrReturnExceedsOriginal, "precio mayor al vendido")

	_, err = ret("1", "100")
	require.NoError(t, err)

	assert.True(t, dec("10").Equal(f.stock(t, "P")), "7 tras la venta + 3 devueltas")
	assert.True(t, f.balance(t, entity.PartyCustomer, cust).IsZero(), "300 - 200 - 100")
}

func TestCreateInvoice_DevolucionDeCompraRechazada(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.product(t, "P", "10", "50")
	sup := f.supplier(t, "Mayorista")
	purchase, err := f.invoices.CreateInvoice(ctx, admin, "", dto.CreateInvoiceRequest{
		Type: entity.InvoiceTypePurchase, SupplierID: sup, Items: []dto.InvoiceItemRequest{item("P", "1", "10")},
	})
	require.NoError(t, err)

	_, err = f.invoices.CreateInvoice(ctx, admin, "", dto.CreateInvoiceRequest{
		Type: entity.InvoiceTypeReturn, OriginalInvoiceID: purchase.ID, Items: []dto.InvoiceItemRequest{item("P", "1", "10")},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateInvoice_Validaciones(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.product(t, "P", "10", "50")
	wrongTotal := dec("1")

	tests := []struct {
		name  string
		actor billing.Actor
		req   dto.CreateInvoiceRequest
		want  error
	}{
		{"sin ítems", admin, dto.CreateInvoiceRequest{Type: entity.InvoiceTypeSale}, domain.ErrInvalidInput},
		{"tipo desconocido", admin, dto.CreateInvoiceRequest{Type: "gift", Items: []dto.InvoiceItemRequest{item("P", "1", "1")}}, domain.ErrInvalidInput},
		{"cantidad cero", admin, sale(item("P", "0", "1")), domain.ErrInvalidInput},
		{"precio negativo", admin, sale(item("P", "1", "-1")), domain.ErrInvalidInput},
		{"total no coincide", admin, dto.CreateInvoiceRequest{Type: entity.InvoiceTypeSale, Items: []dto.InvoiceItemRequest{item("P", "1", "10")}, Total: &wrongTotal}, domain.ErrInvalidInput},
		{"abono mayor al total", admin, dto.CreateInvoiceRequest{Type: entity.InvoiceTypeSale, Items: []dto.InvoiceItemRequest{item("P", "1", "10")}, Paid: dec("11")}, domain.ErrInvalidInput},
		{"venta con proveedor", admin, dto.CreateInvoiceRequest{Type: entity.InvoiceTypeSale, SupplierID: "s", Items: []dto.InvoiceItemRequest{item("P", "1", "10")}}, domain.ErrInvalidInput},
		{"devolución sin original", admin, dto.CreateInvoiceRequest{Type: entity.InvoiceTypeReturn, Items: []dto.InvoiceItemRequest{item("P", "1", "10")}}, domain.ErrInvalidInput},
		{"vendedor no compra", billing.Actor{UserID: "v", Role: entity.RoleVendedor}, dto.CreateInvoiceRequest{Type: entity.InvoiceTypePurchase, Items: []dto.InvoiceItemRequest{item("P", "1", "10")}}, domain.ErrForbidden},
		{"cliente inexistente", admin, dto.CreateInvoiceRequest{Type: entity.InvoiceTypeSale, CustomerID: "nadie", Items: []dto.InvoiceItemRequest{item("P", "1", "10")}}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.invoices.CreateInvoice(ctx, tt.actor, "", tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.True(t, dec("10").Equal(f.stock(t, "P")))
}

func TestCreateInvoice_EstadoPorDefecto(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.product(t, "P", "10", "50")

	req := sale(item("P", "1", "100"))
	req.Paid = dec("100")
	resp, err := f.invoices.CreateInvoice(ctx, admin, "", req)
	require.NoError(t, err)
	inv, _ := f.invoices.GetInvoice(ctx, resp.ID)
	assert.Equal(t, entity.InvoiceStatusCompleted, inv.Status)
	assert.True(t, inv.Remaining.IsZero())
}

func TestCreateInvoice_CacheDeResultados(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	f := newFixture(t, cache)
	f.product(t, "P", "10", "50")

	first, err := f.invoices.CreateInvoice(ctx, admin, "k1", sale(item("P", "1", "100")))
	require.NoError(t, err)
	require.Contains(t, cache.data, "invoice:k1")

	replay, err := f.invoices.CreateInvoice(ctx, admin, "k1", sale(item("P", "1", "100")))
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, first.InvoiceNumber, replay.InvoiceNumber)
	assert.True(t, dec("9").Equal(f.stock(t, "P")))
}

func TestGetInvoice_NoExiste(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.invoices.GetInvoice(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
